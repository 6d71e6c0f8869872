package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemPrompt_FollowsUserLanguage(t *testing.T) {
	req := require.New(t)

	german := SystemPrompt("Guten Morgen, wie geht es dir heute? Ich hoffe, du hast gut geschlafen.")
	req.Contains(german, "German")

	french := SystemPrompt("Bonjour, comment vas-tu aujourd'hui ? J'espère que tu as bien dormi cette nuit.")
	req.Contains(french, "French")
}

func TestSystemPrompt_FallsBackToEnglish(t *testing.T) {
	req := require.New(t)

	req.Contains(SystemPrompt(""), "English")
}
