// Package gemini implements [parley.ChatService] locally on top of the
// Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Threads live in a
// [parley.ConversationLog]; every Send replays the stored thread to the model
// and appends both turns, so the backend answers in the same shape as the
// remote chat service.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192

	// TitleWidth is the display width of generated conversation titles.
	TitleWidth = 40
)
