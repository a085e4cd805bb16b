package grading

// BreakdownRatio is the default share of a mark point's keywords that a
// response must cover to earn the point.
const BreakdownRatio = 0.4

// ExtendedMarks is the mark value from which an item with an authored
// breakdown is graded point by point instead of all-or-nothing.
const ExtendedMarks = 4

// MarkPoint is one gradable criterion of a mark scheme.
type MarkPoint struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Marks       int      `json:"marks" yaml:"marks"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ResolvedKeywords returns the explicit keywords, or keywords derived from
// the description when none are authored.
func (p MarkPoint) ResolvedKeywords() []string {
	if kw := nonBlank(p.Keywords); len(kw) > 0 {
		return kw
	}
	return DeriveKeywords(p.Description)
}

// AnswerBreakdown is the itemized mark scheme of an extended question.
type AnswerBreakdown struct {
	QuestionID      string      `json:"question_id" yaml:"question_id"`
	IdeaMarks       []MarkPoint `json:"idea_marks" yaml:"idea_marks"`
	MethodMarks     []MarkPoint `json:"method_marks" yaml:"method_marks"`
	PrecisionMarks  []MarkPoint `json:"precision_marks" yaml:"precision_marks"`
	CommonPenalties []string    `json:"common_penalties,omitempty" yaml:"common_penalties,omitempty"`
}

// Points returns every mark point: idea, then method, then precision.
func (b AnswerBreakdown) Points() []MarkPoint {
	out := make([]MarkPoint, 0, len(b.IdeaMarks)+len(b.MethodMarks)+len(b.PrecisionMarks))
	out = append(out, b.IdeaMarks...)
	out = append(out, b.MethodMarks...)
	return append(out, b.PrecisionMarks...)
}

// TotalMarks sums the marks of every point.
func (b AnswerBreakdown) TotalMarks() int {
	total := 0
	for _, p := range b.Points() {
		total += p.Marks
	}
	return total
}

// BreakdownResult is the outcome of grading against a breakdown.
type BreakdownResult struct {
	Obtained   []MarkPoint `json:"obtained"`
	Missed     []MarkPoint `json:"missed"`
	Score      int         `json:"score"`
	TotalMarks int         `json:"total_marks"`
}

// BreakdownGrader awards mark points independently by keyword coverage.
type BreakdownGrader struct {
	ratio float64
}

// NewBreakdownGrader creates a grader requiring ratio of each point's
// keywords. A non-positive ratio selects BreakdownRatio.
func NewBreakdownGrader(ratio float64) *BreakdownGrader {
	if ratio <= 0 || ratio > 1 {
		ratio = BreakdownRatio
	}
	return &BreakdownGrader{ratio: ratio}
}

// Grade scores response against every point of b.
func (g *BreakdownGrader) Grade(b AnswerBreakdown, response string) BreakdownResult {
	res := BreakdownResult{Obtained: []MarkPoint{}, Missed: []MarkPoint{}}
	for _, p := range b.Points() {
		res.TotalMarks += p.Marks
		if g.awards(p, response) {
			res.Obtained = append(res.Obtained, p)
			res.Score += p.Marks
		} else {
			res.Missed = append(res.Missed, p)
		}
	}
	return res
}

func (g *BreakdownGrader) awards(p MarkPoint, response string) bool {
	kw := p.ResolvedKeywords()
	if len(kw) == 0 {
		return false
	}
	need := max(1, ceilFraction(len(kw), g.ratio))
	return CountMatches(kw, response) >= need
}
