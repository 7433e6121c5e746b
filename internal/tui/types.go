package tui

type stage int

const (
	stageForm stage = iota
	stagePicker
)

type focusTarget int

const (
	focusFileQuestion focusTarget = iota
	focusChatQuestion
)

const focusCount = 2

const heroTitle = "📄 Data Analysis Chatbot"

const heroTagline = "Upload a table and ask about it, or just chat."

const (
	minContentWidth           = 40
	viewportHorizontalPadding = 4
	logPreviewLimit           = 160
)

const (
	uploadButtonLabel     = "Upload and Analyze"
	uploadBusyButtonLabel = "Processing..."
	chatButtonLabel       = "Chat"
	chatBusyButtonLabel   = "Thinking..."

	responsePlaceholder = "Responses will appear here"
	responseBusyText    = "Generating response..."
	noFileText          = "No file selected. Press Ctrl+O to browse."
)

const (
	fileQuestionPlaceholder = "Question about the file"
	chatQuestionPlaceholder = "Ask a general question..."
)
