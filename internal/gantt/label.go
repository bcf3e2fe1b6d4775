package gantt

import "strings"

// MetaSeparator splits the display text of a leaf label from the customer
// name. U+001F (unit separator) does not occur in real names; any occurrence
// inside a field is replaced by a space before the label is built.
const MetaSeparator = "\x1f"

func sanitize(s string) string {
	return strings.ReplaceAll(s, MetaSeparator, " ")
}

// BuildLabel returns "<process> - <order>" followed by the separator and customer
func BuildLabel(process, order, customer string) string {
	return sanitize(process) + " - " + sanitize(order) + MetaSeparator + sanitize(customer)
}

// SplitLabel recovers the display text and customer from a leaf label. A
// label without a separator is all display text.
func SplitLabel(label string) (display, customer string) {
	display, customer, _ = strings.Cut(label, MetaSeparator)
	return display, customer
}

// DisplayLabel returns the label without its embedded metadata
func DisplayLabel(t Task) string {
	display, _ := SplitLabel(t.Label())
	return display
}
