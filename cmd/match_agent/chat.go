package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/skill-matcher/internal/agent"
	"github.com/jonathan/skill-matcher/internal/observability"
	"github.com/jonathan/skill-matcher/internal/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run one agent turn",
	Long: `Runs one agent turn for a requester. Without --approve the agent extracts
skills from --message and returns matches plus an approval ticket. Pass the
ticket back with --approve to draft an introduction to one of those matches.`,
	RunE: runChat,
}

var (
	chatRequester    string
	chatMessage      string
	chatMode         string
	chatApprove      string
	chatTicket       string
	chatProject      string
	chatNote         string
	chatLimit        int
	chatAvailability string
	chatEmbeddings   bool
	chatVerbose      bool
)

func init() {
	chatCmd.Flags().StringVarP(&chatRequester, "requester", "r", "", "Requesting user ID (required)")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Free-text request")
	chatCmd.Flags().StringVar(&chatMode, "mode", "rules", "Agent mode: rules or llm")
	chatCmd.Flags().StringVar(&chatApprove, "approve", "", "Approved recipient ID from a previous turn")
	chatCmd.Flags().StringVar(&chatTicket, "ticket", "", "Approval ticket from a previous turn")
	chatCmd.Flags().StringVar(&chatProject, "project", "", "Project ID to mention in the introduction")
	chatCmd.Flags().StringVar(&chatNote, "note", "", "Custom note for the introduction (max 300 chars)")
	chatCmd.Flags().IntVarP(&chatLimit, "limit", "l", 0, "Maximum number of matches (1-10, default 5)")
	chatCmd.Flags().StringVar(&chatAvailability, "availability", "", "Only match users with this availability")
	chatCmd.Flags().BoolVar(&chatEmbeddings, "embeddings", false, "Rank with text embeddings when a provider is configured")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "Print a human-readable summary instead of JSON")

	if err := chatCmd.MarkFlagRequired("requester"); err != nil {
		panic(fmt.Sprintf("failed to mark requester flag as required: %v", err))
	}

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	req, err := chatRequest()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := contextOrBackground(cmd)
	a, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var turnAgent agent.Agent
	switch chatMode {
	case "rules":
		turnAgent = a.rules
	case "llm":
		if a.llm == nil {
			return fmt.Errorf("llm mode requires llm.api-key (or GEMINI_API_KEY)")
		}
		turnAgent = a.llm
	default:
		return fmt.Errorf("invalid --mode %q: must be rules or llm", chatMode)
	}

	resp, err := turnAgent.Handle(ctx, req)
	if err != nil {
		return fmt.Errorf("agent turn failed: %w", err)
	}

	if chatVerbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintResponse(resp)
		return nil
	}
	return writeJSON(cmd, resp)
}

// chatRequest builds the agent request from flags.
func chatRequest() (agent.Request, error) {
	requester, err := uuid.Parse(chatRequester)
	if err != nil {
		return agent.Request{}, fmt.Errorf("invalid --requester %q: %w", chatRequester, err)
	}
	approved, err := parseOptionalUUID("approve", chatApprove)
	if err != nil {
		return agent.Request{}, err
	}
	project, err := parseOptionalUUID("project", chatProject)
	if err != nil {
		return agent.Request{}, err
	}

	return agent.Request{
		RequesterID:         requester,
		Message:             chatMessage,
		ApprovedRecipientID: approved,
		ApprovalTicket:      chatTicket,
		ProjectID:           project,
		CustomNote:          chatNote,
		Limit:               chatLimit,
		AvailabilityFilter:  types.Availability(chatAvailability),
		UseEmbeddings:       chatEmbeddings,
	}, nil
}
