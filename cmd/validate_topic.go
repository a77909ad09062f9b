package cmd

import "strings"

// nats does not allow certain characters to be used as a subject (topic) name
// validateSubject will return a validated & sanitized subject string
func validateSubject(topic string) string {
	return strings.NewReplacer(" ", "_", "\t", "_", "*", "_", ">", "_").Replace(topic)
}
