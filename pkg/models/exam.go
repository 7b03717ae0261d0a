package models

// QuestionType identifies the interaction style of a question.
type QuestionType string

const (
	TypeFormFill           QuestionType = "form-fill"
	TypeMultipleChoice     QuestionType = "multiple-choice"
	TypeMultiSelect        QuestionType = "multi-select"
	TypeMatching           QuestionType = "matching"
	TypeMapLabelling       QuestionType = "map-labelling"
	TypeShortAnswer        QuestionType = "short-answer"
	TypeSentenceCompletion QuestionType = "sentence-completion"
	TypeDivider            QuestionType = "divider"
	TypeImage              QuestionType = "image"
)

// InputType identifies the form control a question renders as.
type InputType string

const (
	InputText     InputType = "text"
	InputRadio    InputType = "radio"
	InputCheckbox InputType = "checkbox"
	InputDrag     InputType = "drag"
)

// Exam sections.
const (
	SectionListening = "Listening"
	SectionReading   = "Reading"
	SectionWriting   = "Writing"
)

// Answer holds the expected answer for a question. Correct is the canonical
// form; Accepted lists additional spellings that should score as correct.
type Answer struct {
	Correct  string   `json:"correct"`
	Accepted []string `json:"accepted"`
}

// Question is a single entry in a part's question sequence. The Type field
// selects the variant; divider and image entries are structural and carry no
// number. Pointer fields distinguish "absent in the source" from zero values
// so the post-processing pipeline can fill defaults.
type Question struct {
	QuestionID        string       `json:"questionId"`
	Number            int          `json:"number,omitempty"`
	Type              QuestionType `json:"type"`
	InputType         InputType    `json:"inputType"`
	AnswerConstraints string       `json:"answerConstraints"`
	IsInteractive     *bool        `json:"isInteractive"`
	Answer            *Answer      `json:"answer"`

	// Content fields; which ones are populated depends on Type.
	Text         string   `json:"text,omitempty"`
	QuestionText string   `json:"questionText,omitempty"`
	Options      []string `json:"options,omitempty"`

	// DraggableVariants is authored once on a divider and copied onto every
	// matching question in the same part.
	DraggableVariants []string `json:"draggableVariants,omitempty"`

	// Image questions reference stored files. ImageData carries an inline
	// base64 payload until the pipeline materializes it into a URL.
	URL       string `json:"url,omitempty"`
	Headline  string `json:"headline,omitempty"`
	ImageData string `json:"imageData,omitempty"`

	// NumberRange covers questions that span several numbers (e.g. "21-22").
	NumberRange string `json:"numberRange,omitempty"`
}

// Part groups questions that share instructions on the exam paper.
type Part struct {
	Part           int        `json:"part"`
	Instructions   string     `json:"instructions"`
	QuestionsRange string     `json:"questionsRange"`
	Questions      []Question `json:"questions"`
}

// ExamDocument is the structured form of one extracted exam paper. Parts are
// kept sorted by part number and part numbers are unique after merging.
type ExamDocument struct {
	Test    string `json:"test"`
	Section string `json:"section"`
	Parts   []Part `json:"parts"`
}

// UploadedImage records a stored page image and whether it was classified as
// a map or diagram candidate.
type UploadedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	IsMap    bool   `json:"isMap"`
}
