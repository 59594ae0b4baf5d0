package chain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Arg is one contract call argument in its ABI word form.
type Arg struct {
	dynamic bool
	word    [32]byte
	tail    []byte
}

// Address encodes a 20-byte hex address argument.
func Address(value string) Arg {
	var arg Arg
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x"))
	if err == nil && len(raw) == 20 {
		copy(arg.word[12:], raw)
	}
	return arg
}

// Uint64 encodes an unsigned integer argument as a uint256 word.
func Uint64(value uint64) Arg {
	var arg Arg
	binary.BigEndian.PutUint64(arg.word[24:], value)
	return arg
}

// Bool encodes a boolean argument.
func Bool(value bool) Arg {
	var arg Arg
	if value {
		arg.word[31] = 1
	}
	return arg
}

// String encodes a dynamic string argument.
func String(value string) Arg {
	data := []byte(value)
	padded := len(data)
	if rem := padded % 32; rem != 0 {
		padded += 32 - rem
	}
	tail := make([]byte, 32+padded)
	binary.BigEndian.PutUint64(tail[24:32], uint64(len(data)))
	copy(tail[32:], data)
	return Arg{dynamic: true, tail: tail}
}

func keccak(data []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// Selector returns the 4-byte function selector for a signature such as
// "totalSupply()".
func Selector(signature string) []byte {
	return keccak([]byte(signature))[:4]
}

// EventTopic returns the 32-byte topic hash for an event signature.
func EventTopic(signature string) string {
	return "0x" + hex.EncodeToString(keccak([]byte(signature)))
}

// EncodeCall renders calldata for a function signature and its arguments
// using standard head and tail encoding for dynamic values.
func EncodeCall(signature string, args ...Arg) string {
	head := make([]byte, 0, len(args)*32)
	var tail []byte
	tailOffset := len(args) * 32

	for _, arg := range args {
		if arg.dynamic {
			var offsetWord [32]byte
			binary.BigEndian.PutUint64(offsetWord[24:], uint64(tailOffset+len(tail)))
			head = append(head, offsetWord[:]...)
			tail = append(tail, arg.tail...)
			continue
		}
		head = append(head, arg.word[:]...)
	}

	data := append(Selector(signature), head...)
	data = append(data, tail...)
	return "0x" + hex.EncodeToString(data)
}

// DecodeUint64 reads a uint256 return value or topic as a uint64. Values
// exceeding 64 bits are an error.
func DecodeUint64(value string) (uint64, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if raw == "" {
		return 0, fmt.Errorf("empty abi quantity")
	}
	if len(raw) > 64 {
		if strings.TrimLeft(raw[:len(raw)-64], "0") != "" {
			return 0, fmt.Errorf("abi quantity %s overflows uint256", value)
		}
		raw = raw[len(raw)-64:]
	}
	trimmed := strings.TrimLeft(raw, "0")
	if trimmed == "" {
		return 0, nil
	}
	if len(trimmed) > 16 {
		return 0, fmt.Errorf("abi quantity %s overflows uint64", value)
	}
	return strconv.ParseUint(trimmed, 16, 64)
}

// DecodeAddress reads an address from a 32-byte return word or topic.
func DecodeAddress(value string) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(raw) < 40 {
		return "", fmt.Errorf("abi value %s too short for address", value)
	}
	return "0x" + strings.ToLower(raw[len(raw)-40:]), nil
}
