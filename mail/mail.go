package mail

// Message is one outbound email. Text and HTML carry the same content in
// both forms; senders may use either or both.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}
