package transport

import "strings"

// TopicName derives a topic name deterministically from a type's
// fully-qualified name by replacing separator characters with underscores.
// The same function is used on both the publish and subscribe sides so
// subscriptions align.
func TopicName(fullyQualifiedName string) string {
	return strings.ReplaceAll(fullyQualifiedName, ".", "_")
}
