package wsproto

import "io"

// MessageKind discriminates the Message sum type.
type MessageKind int

const (
	KindString MessageKind = iota
	KindBinary
	KindClose
	KindPing
	KindPong
)

// Message is the logical unit produced by reassembling one or more
// frames, or the unit a caller hands to Send.
type Message struct {
	Kind MessageKind
	Text string
	Data []byte
}

func TextMessage(s string) Message   { return Message{Kind: KindString, Text: s} }
func BinaryMessage(b []byte) Message { return Message{Kind: KindBinary, Data: b} }
func CloseMessage() Message          { return Message{Kind: KindClose} }
func PingMessage() Message           { return Message{Kind: KindPing} }
func PongMessage() Message           { return Message{Kind: KindPong} }

// ReadMessage assembles a complete logical message by reading single
// frames until one arrives with Fin=true: the first
// frame's opcode (TEXT/BINARY) carries the message kind; zero or more
// CONTINUATION frames extend the payload.
func ReadMessage(r io.Reader) (Message, error) {
	first, err := DecodeFrame(r)
	if err != nil {
		return Message{}, err
	}

	payload := first.Payload
	opcode := first.Opcode
	fin := first.Fin
	for !fin {
		next, err := DecodeFrame(r)
		if err != nil {
			return Message{}, err
		}
		payload = append(payload, next.Payload...)
		fin = next.Fin
	}

	return frameToMessage(opcode, payload)
}

func frameToMessage(opcode OpCode, payload []byte) (Message, error) {
	switch opcode {
	case OpText, OpContinuation:
		return Message{Kind: KindString, Text: string(payload)}, nil
	case OpBinary:
		return Message{Kind: KindBinary, Data: payload}, nil
	case OpClose:
		return Message{Kind: KindClose}, nil
	case OpPing:
		return Message{Kind: KindPing}, nil
	case OpPong:
		return Message{Kind: KindPong}, nil
	default:
		return Message{}, nil
	}
}

// WriteMessage writes msg as a single, unfragmented frame (Fin=true),
// the server-to-client write policy.
func WriteMessage(w io.Writer, msg Message) error {
	var opcode OpCode
	var payload []byte
	switch msg.Kind {
	case KindString:
		opcode, payload = OpText, []byte(msg.Text)
	case KindBinary:
		opcode, payload = OpBinary, msg.Data
	case KindClose:
		opcode, payload = OpClose, nil
	case KindPing:
		opcode, payload = OpPing, nil
	case KindPong:
		opcode, payload = OpPong, nil
	}
	_, err := w.Write(EncodeFrame(opcode, payload))
	if err != nil {
		return readErr(err)
	}
	return nil
}
