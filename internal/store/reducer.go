package store

import (
	"slices"
	"strings"
)

// Reduce applies action to prev and returns the next snapshot. The boolean is
// false when the action is not recognised; prev is returned unchanged.
func Reduce(prev State, action Action) (State, bool) {
	next := prev
	switch a := action.(type) {
	case ToggleRecord:
		next.Live.Recording = !prev.Live.Recording
	case TogglePreview:
		next.Live.Previewing = !prev.Live.Previewing
	case ToggleBroadcast:
		next.Live.Broadcasting = !prev.Live.Broadcasting
	case StartConversion:
		next.Video.Converting = true
	case FinishConversion:
		next.Video.Converting = false
	case RequestVideo:
		next.Video.Reading = true
		next.Video.Read = false
		next.Video.RequestedPath = a.Path
	case RequestFailed:
		if !prev.Video.Reading || prev.Video.RequestedPath != a.Path {
			return prev, true
		}
		next.Video.Reading = false
		next.Video.LastError = a.Err
	case ReceiveVideo:
		next.Video.Reading = false
		next.Video.Read = true
		next.Video.ReceivedPath = a.Path
	case UploadStarted:
		next.Video.Read = false
		next.Video.Uploading = true
		next.Video.LastError = ""
	case UploadFinished:
		next.Video.Uploading = false
		next.Video.UploadedURL = a.URL
	case UploadFailed:
		next.Video.Uploading = false
		next.Video.LastError = a.Err
	case DeviceAttached:
		node := strings.TrimSpace(a.Node)
		if node == "" || slices.Contains(prev.Devices, node) {
			return prev, true
		}
		next.Devices = append(slices.Clone(prev.Devices), node)
		slices.Sort(next.Devices)
	case DeviceDetached:
		idx := slices.Index(prev.Devices, strings.TrimSpace(a.Node))
		if idx < 0 {
			return prev, true
		}
		next.Devices = slices.Delete(slices.Clone(prev.Devices), idx, idx+1)
	default:
		return prev, false
	}
	return next, true
}
