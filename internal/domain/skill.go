package domain

// FallbackIntent is the synthetic intent id for the terminal fallback handler.
// It is always routable and never registered through the normal path.
const FallbackIntent = "fallback"

// SkillDescriptor identifies a registered skill and its display metadata.
// Descriptors are registered at startup and immutable afterwards.
type SkillDescriptor struct {
	Intent      string
	Name        string
	Description string
}

// Response is the result of dispatching a query to a skill. Metadata carries
// optional UI hints; Degraded marks responses produced on the failure path
// (handler error or timeout) instead of by the resolved skill itself.
type Response struct {
	Text     string
	Source   string
	Metadata map[string]string
	Degraded bool
}
