package validate

import "fmt"

// Text field length limits for authored scenes and chat input.
const (
	MaxSceneIDLength      = 64
	MaxSceneTitleLength   = 200
	MaxQuestionIDLength   = 64
	MaxQuestionTextLength = 500
	MaxOptionLabelLength  = 100
	MaxOptionsPerQuestion = 8
	MaxQuestionsPerScene  = 100
	MaxVideoURLLength     = 2000
	MaxChatMessageLength  = 4000
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func SceneID(s string) string      { return checkLen(s, MaxSceneIDLength, "scene id") }
func SceneTitle(s string) string   { return checkLen(s, MaxSceneTitleLength, "scene title") }
func QuestionID(s string) string   { return checkLen(s, MaxQuestionIDLength, "question id") }
func QuestionText(s string) string { return checkLen(s, MaxQuestionTextLength, "question text") }
func OptionLabel(s string) string  { return checkLen(s, MaxOptionLabelLength, "option label") }
func VideoURL(s string) string     { return checkLen(s, MaxVideoURLLength, "video URL") }
func ChatMessage(s string) string  { return checkLen(s, MaxChatMessageLength, "message") }

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"sceneId":            MaxSceneIDLength,
		"sceneTitle":         MaxSceneTitleLength,
		"questionId":         MaxQuestionIDLength,
		"questionText":       MaxQuestionTextLength,
		"optionLabel":        MaxOptionLabelLength,
		"optionsPerQuestion": MaxOptionsPerQuestion,
		"questionsPerScene":  MaxQuestionsPerScene,
		"videoURL":           MaxVideoURLLength,
		"chatMessage":        MaxChatMessageLength,
	}
}
