package engine

// Picker is the connection id whose turn it is to choose a topic.
func (s Session) Picker() string {
	if len(s.PickerOrder) == 0 {
		return ""
	}
	return s.PickerOrder[s.PickerCursor%len(s.PickerOrder)]
}

// Rotation is circular over the order captured at start, connected or not.
func nextPickerIndex(s Session) int {
	n := len(s.PickerOrder)
	if n == 0 {
		return 0
	}
	return (s.PickerCursor + 1) % n
}
