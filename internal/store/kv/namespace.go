package kv

import (
	"github.com/voxov/voxov/internal/ids"
)

// Tag is a one-byte namespace prefix distinguishing the different key
// families sharing the KV store's flat keyspace.
type Tag byte

// The tag enumeration. Hidden is never issued a key and exists only to
// reserve byte 0, matching the original database::namespace module.
const (
	Hidden     Tag = 0
	Access     Tag = 1
	Refresh    Tag = 2
	SmsSendTo  Tag = 3
	SmsSent    Tag = 4
	Phone2Uid  Tag = 5
	Uid2Phone  Tag = 6
	Uid2Credit Tag = 7
	Uid2CheckIn Tag = 8
)

// Key builds a namespaced key: the tag as an ASCII digit, a ':' separator,
// then id rendered as hex, so the result is a safe Redis key string.
func Key(tag Tag, id ids.Id) string {
	return keyString(tag, id.String())
}

// KeyPhone builds a namespaced key for phone-indexed entries (PHONE2UID).
// The phone+message-id SMS challenge keys use KeyPhoneMessage.
func KeyPhone(tag Tag, phone string) string {
	return keyString(tag, phone)
}

// KeyPhoneMessage builds a composite key for an SMS challenge keyed by both
// the destination phone and a per-challenge message Id, so concurrent
// challenges to the same phone don't collide.
func KeyPhoneMessage(tag Tag, phone string, message ids.Id) string {
	return keyString(tag, phone+":"+message.String())
}

func keyString(tag Tag, rest string) string {
	return string([]byte{byte(tag) + '0'}) + ":" + rest
}
