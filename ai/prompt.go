package ai

import (
	"fmt"

	"github.com/abadojack/whatlanggo"
)

const basePersona = "You are a friendly chatbot taking part in a private conversation. Keep your answers short."

// SystemPrompt asks the model to answer in the language the user wrote in.
// Detection falls back to English when the text is too short to be reliable.
func SystemPrompt(userText string) string {
	return fmt.Sprintf("%s Always answer in %s.", basePersona, detectLanguage(userText))
}

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() || info.Lang == -1 {
		return "English"
	}
	return info.Lang.String()
}
