// Package protocol defines the skill invocation envelope exchanged with
// agents over HTTP, and the client that speaks it. Agents expose their
// skills at POST <endpoint>/execute and accept a JSON-RPC-shaped message.
package protocol

import "fmt"

// Version of the invocation envelope.
const Version = "2.0"

// InvokeRequest is the envelope posted to an agent's /execute endpoint.
type InvokeRequest struct {
	ProtocolVersion string         `json:"protocol_version"`
	Method          string         `json:"method"`
	Params          map[string]any `json:"params"`
	ID              string         `json:"id"`
}

// InvokeResponse carries either a result or an error, never both.
type InvokeResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	Result          any          `json:"result,omitempty"`
	Error           *ErrorObject `json:"error,omitempty"`
	ID              string       `json:"id"`
}

// ErrorObject is the remote-supplied error payload.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RemoteError is returned by the client when the agent reports an
// application-level error in the response envelope.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// AgentCard advertises an agent's identity and the skills it serves.
// Cards are published to the artifact registry under agents/<name>:<tag>.
type AgentCard struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Version     string  `json:"version,omitempty"`
	Description string  `json:"description,omitempty"`
	Skills      []Skill `json:"skills"`
}

// Skill is one named capability on an agent card.
type Skill struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}
