package reconcile

import "stitchcast/internal/store"

// Guard is one named precondition for starting a mode.
type Guard struct {
	Name    string
	Blocked func(store.State) bool
	Message string
}

// FirstViolation evaluates guards in order and returns the first that blocks.
// Later guards are not evaluated.
func FirstViolation(guards []Guard, state store.State) (Guard, bool) {
	for _, g := range guards {
		if g.Blocked(state) {
			return g, true
		}
	}
	return Guard{}, false
}

// RecordGuards lists the preconditions for starting a recording, highest priority first.
func RecordGuards() []Guard {
	return []Guard{
		{Name: "previewing", Blocked: store.IsPreviewing, Message: "Please stop the preview before recording."},
		{Name: "broadcasting", Blocked: store.IsBroadcasting, Message: "Please stop the stream before recording."},
		{Name: "converting", Blocked: store.IsConverting, Message: "Please wait until video processing is done."},
		{Name: "upload-pending", Blocked: store.IsUploadPending, Message: "Please wait until video uploading is done."},
	}
}

// PreviewGuards lists the preconditions for starting a preview.
func PreviewGuards() []Guard {
	return []Guard{
		{Name: "recording", Blocked: store.IsRecording, Message: "Please stop the recording before previewing."},
		{Name: "broadcasting", Blocked: store.IsBroadcasting, Message: "Please stop the stream before previewing."},
	}
}

// BroadcastGuards lists the preconditions for starting a broadcast.
func BroadcastGuards() []Guard {
	return []Guard{
		{Name: "previewing", Blocked: store.IsPreviewing, Message: "Please stop the preview before streaming."},
		{Name: "recording", Blocked: store.IsRecording, Message: "Please stop the recording before streaming."},
	}
}
