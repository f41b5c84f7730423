package skills

// Vocabulary maps normalized skill tokens to dense vector indices.
// Indices follow first-seen order and carry no meaning beyond identity.
type Vocabulary struct {
	index  map[string]int
	tokens []string
}

// BuildVocabulary assigns the next free index to every normalized token not
// seen before, walking the skill sets in the order given.
func BuildVocabulary(skillSets [][]string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	for _, set := range skillSets {
		for _, raw := range set {
			token := Normalize(raw)
			if token == "" {
				continue
			}
			if _, ok := v.index[token]; ok {
				continue
			}
			v.index[token] = len(v.tokens)
			v.tokens = append(v.tokens, token)
		}
	}
	return v
}

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Index returns the position of a raw or normalized skill, if present.
func (v *Vocabulary) Index(skill string) (int, bool) {
	i, ok := v.index[Normalize(skill)]
	return i, ok
}

// Tokens returns the tokens in index order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Encode returns the binary presence vector of skills over vocab.
// Skills missing from the vocabulary are ignored.
func Encode(skills []string, vocab *Vocabulary) []float64 {
	vec := make([]float64, vocab.Len())
	for _, s := range skills {
		if i, ok := vocab.Index(s); ok {
			vec[i] = 1.0
		}
	}
	return vec
}
