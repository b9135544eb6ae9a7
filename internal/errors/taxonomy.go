package errors

import "fmt"

// Constructors below implement the rooted taxonomy from the error handling
// design: each leaf carries both a precise log message (via Error()) and a
// user-facing message (via Message()).

// --- Audio ---

func AudioFileNotFound(path string) *EnhancedError {
	return New(fmt.Errorf("audio file not found: %s", path)).
		Kind(KindAudio, "FileNotFound").
		UserFacing(fmt.Sprintf("Could not find audio file %q.", path)).
		Context("path", path).
		Build()
}

func AudioFormat(path, ext string) *EnhancedError {
	return New(fmt.Errorf("unsupported audio format %q for %s", ext, path)).
		Kind(KindAudio, "Format").
		UserFacing(fmt.Sprintf("Audio format %q is not supported.", ext)).
		Context("path", path).
		Context("extension", ext).
		Build()
}

func AudioCorrupted(path, detail string) *EnhancedError {
	return New(fmt.Errorf("corrupted audio file %s: %s", path, detail)).
		Kind(KindAudio, "Corrupted").
		UserFacing(fmt.Sprintf("Audio file %q appears to be corrupted.", path)).
		Context("path", path).
		Build()
}

func AudioRecording(detail string) *EnhancedError {
	return New(fmt.Errorf("recording error: %s", detail)).
		Kind(KindAudio, "Recording").
		UserFacing("An error occurred while recording audio.").
		Build()
}

func AudioDependency(missingTool string) *EnhancedError {
	return New(fmt.Errorf("missing required external tool: %s", missingTool)).
		Kind(KindAudio, "Dependency").
		UserFacing(fmt.Sprintf("Required tool %q was not found on this system.", missingTool)).
		Context("tool", missingTool).
		Build()
}

// --- Model ---

func ModelNotFound(name string) *EnhancedError {
	return New(fmt.Errorf("model not found: %s", name)).
		Kind(KindModel, "NotFound").
		UserFacing(fmt.Sprintf("Model %q was not found. Download it before continuing.", name)).
		Context("model", name).
		Build()
}

func ModelDownload(name, detail string) *EnhancedError {
	return New(fmt.Errorf("failed to download model %s: %s", name, detail)).
		Kind(KindModel, "Download").
		UserFacing(fmt.Sprintf("Could not download model %q.", name)).
		Context("model", name).
		Build()
}

func ModelLoad(name, detail string) *EnhancedError {
	return New(fmt.Errorf("failed to load model %s: %s", name, detail)).
		Kind(KindModel, "Load").
		UserFacing(fmt.Sprintf("Could not load model %q.", name)).
		Context("model", name).
		Build()
}

// ModelAuthToken is reserved: the adopted artifact host requires no auth
// token today, but the taxonomy keeps the slot for a future private
// registry that does.
func ModelAuthToken(name string) *EnhancedError {
	return New(fmt.Errorf("missing auth token for model %s", name)).
		Kind(KindModel, "AuthToken").
		UserFacing(fmt.Sprintf("An authentication token is required to download %q.", name)).
		Context("model", name).
		Build()
}

// --- Transcription ---

func TranscriptionCancelled() *EnhancedError {
	return New(fmt.Errorf("transcription cancelled")).
		Kind(KindTranscription, "Cancelled").
		UserFacing("Transcription cancelled.").
		Build()
}

func TranscriptionFailed(detail string) *EnhancedError {
	return New(fmt.Errorf("transcription failed: %s", detail)).
		Kind(KindTranscription, "Failed").
		UserFacing("Transcription failed.").
		Build()
}

// --- Diarization ---

func DiarizationFailed(detail string) *EnhancedError {
	return New(fmt.Errorf("diarization failed: %s", detail)).
		Kind(KindDiarization, "Failed").
		UserFacing("Speaker diarization failed.").
		Build()
}

func DiarizationNoSpeakersDetected() *EnhancedError {
	return New(fmt.Errorf("no speakers detected")).
		Kind(KindDiarization, "NoSpeakersDetected").
		UserFacing("No speakers were detected in this recording.").
		Build()
}

// --- System ---

func SystemInsufficientMemory(requiredBytes, availableBytes uint64) *EnhancedError {
	return New(fmt.Errorf("insufficient memory: need %d bytes, have %d", requiredBytes, availableBytes)).
		Kind(KindSystem, "InsufficientMemory").
		UserFacing("Not enough free memory to continue.").
		Context("required_bytes", requiredBytes).
		Context("available_bytes", availableBytes).
		Build()
}

func SystemDiskSpace(requiredBytes uint64) *EnhancedError {
	return New(fmt.Errorf("insufficient disk space: need %d bytes", requiredBytes)).
		Kind(KindSystem, "DiskSpace").
		UserFacing("Not enough free disk space to continue.").
		Context("required_bytes", requiredBytes).
		Build()
}
