package transcriber

// Word is a single word-level timing produced by the ASR model.
type Word struct {
	Word        string
	Start       float64
	End         float64
	Probability float64
}

// Segment is a contiguous span of speech with its recognized text and,
// optionally, the words that make it up. Speaker is populated later by
// fusion; it is always empty coming out of the transcriber.
type Segment struct {
	Start      float64
	End        float64
	Text       string
	Words      []Word
	Confidence float64
	Speaker    string // "" means unassigned
}

// Result is the full output of transcribing one file.
type Result struct {
	Segments           []Segment
	DetectedLanguage   string
	LanguageConfidence float64
	Duration           float64
}
