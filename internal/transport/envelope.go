// Package transport realizes the spec's black-box "framed request/reply
// socket with routing envelopes" over the stack this repo actually has
// available: Gin-routed HTTP endpoints carrying a JSON array of frames.
//
// Common envelope (spec §6): `ID* "" payload…` — zero or more routing ids,
// an empty delimiter frame, then the payload. Over HTTP a single routing id
// is carried (a per-call correlation id generated by Client.Send and echoed
// back by the receiving handler) rather than a full multi-hop id stack,
// since HTTP request/response already gives us reply-to-sender delivery for
// free — the id stack's job in a raw ROUTER-socket transport. The echoed id
// is not checked on receipt; late fan-out replies are dropped by the API
// Router's own collection deadline, not by id. Envelope.IDs is kept as a
// slice (not a scalar) so the ids-then-payload structure survives
// losslessly even though this realization never needs more than one id.
package transport

// Envelope is one frame sequence: routing ids followed by a payload. On the
// wire (inside the JSON body) it serializes as a JSON object with separate
// "ids" and "payload" arrays; the empty delimiter frame of spec §6's
// `ID* "" payload…` shape is implicit in that split, and Frames produces
// the flat IDs ++ [""] ++ Payload form.
type Envelope struct {
	IDs     []string `json:"ids,omitempty"`
	Payload []string `json:"payload"`
}

// Frames flattens the envelope back into the wire's ID* "" payload… shape,
// useful for logging or for transports that want the literal frame list.
func (e Envelope) Frames() []string {
	out := make([]string, 0, len(e.IDs)+1+len(e.Payload))
	out = append(out, e.IDs...)
	out = append(out, "")
	out = append(out, e.Payload...)
	return out
}
