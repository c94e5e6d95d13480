package models

// Answer is one raw user submission, tied to the question it answers.
type Answer struct {
	QuestionID int    `yaml:"question_id" json:"questionId"`
	Text       string `yaml:"text" json:"text"`
}

// Identity is the report owner.
type Identity struct {
	Email       string `json:"email"`
	BuilderName string `json:"builderName"`
}

// Progress is the answered/total count of a conversation.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}
