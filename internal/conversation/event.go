package conversation

// Event is one user input, already stripped of transport details.
type Event interface {
	kind() string
}

// CommandEvent is a slash command without the leading slash, e.g. "start".
type CommandEvent struct {
	Name string
}

// ButtonEvent is an inline button press identified by its callback tag.
type ButtonEvent struct {
	Tag string
}

// TextEvent is a plain text message.
type TextEvent struct {
	Body string
}

// MediaKind distinguishes the media types the bot acknowledges.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVoice MediaKind = "voice"
)

// MediaEvent is a photo or voice message. Ref is the transport's file identifier.
type MediaEvent struct {
	Kind MediaKind
	Ref  string
}

func (CommandEvent) kind() string { return "command" }
func (ButtonEvent) kind() string  { return "button" }
func (TextEvent) kind() string    { return "text" }
func (MediaEvent) kind() string   { return "media" }

// EventKind names the event type for logging.
func EventKind(ev Event) string {
	if ev == nil {
		return "none"
	}
	return ev.kind()
}

// Commands understood by the dispatcher.
const (
	CommandStart  = "start"
	CommandMenu   = "menu"
	CommandCancel = "cancel"
)

// Button tags.
const (
	TagRegister = "registro"
	TagQuestion = "consulta_ia"
	TagRisk     = "evaluar_riesgo"
	TagTips     = "consejos"
	TagMenu     = "menu"
)

// Reply is one outgoing message. Buttons render as an inline keyboard; Keyboard
// renders as a one-time reply keyboard and takes precedence over RemoveKeyboard.
type Reply struct {
	Text           string
	Markdown       bool
	Buttons        [][]Button
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Button is an inline button carrying a tag that comes back as a ButtonEvent.
type Button struct {
	Label string
	Tag   string
}
