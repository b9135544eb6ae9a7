// Package audioio probes, canonicalizes, and chunks audio files ahead of
// transcription and diarization, which both require mono 16 kHz PCM.
//
// WAV and FLAC are probed and (when needed) converted using native Go
// decoders; every other supported container shells out to ffmpeg/ffprobe.
package audioio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/tphakala/flac"
	"github.com/tphakala/simd"

	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/errors"
)

// Descriptor summarizes an audio file without decoding its samples.
type Descriptor struct {
	DurationSeconds float64
	SampleRate      int
	Channels        int
	FormatTag       string
	SizeBytes       int64
}

// IsSupported reports whether path's extension is one this package accepts.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range conf.SupportedAudioExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Probe inspects path and returns its descriptor without shelling out where
// a native decoder can answer the question. WAV and FLAC are probed
// natively; everything else goes through ffprobe.
func Probe(path string) (Descriptor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(path) {
		return Descriptor{}, errors.AudioFormat(path, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Descriptor{}, errors.AudioFileNotFound(path)
	}

	switch ext {
	case ".wav":
		return probeWAV(path, info.Size())
	case ".flac":
		if desc, err := probeFLAC(path, info.Size()); err == nil {
			return desc, nil
		}
		// Fall through to ffprobe on any native-decode failure.
		return probeWithFFprobe(path, ext, info.Size())
	default:
		return probeWithFFprobe(path, ext, info.Size())
	}
}

// probeFLAC reads a FLAC stream's header and tallies decoded frame lengths
// to compute duration, without shelling out to ffprobe.
func probeFLAC(path string, size int64) (Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Descriptor{}, errors.AudioFileNotFound(path)
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return Descriptor{}, errors.AudioCorrupted(path, err.Error())
	}
	defer stream.Close()

	var totalSamples int64
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			break
		}
		if len(frame.Subframes) > 0 {
			totalSamples += int64(len(frame.Subframes[0].Samples))
		}
	}

	sampleRate := int(stream.Info.SampleRate)
	var duration float64
	if sampleRate > 0 {
		duration = float64(totalSamples) / float64(sampleRate)
	}

	return Descriptor{
		DurationSeconds: duration,
		SampleRate:      sampleRate,
		Channels:        int(stream.Info.NChannels),
		FormatTag:       "flac",
		SizeBytes:       size,
	}, nil
}

func probeWAV(path string, size int64) (Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Descriptor{}, errors.AudioFileNotFound(path)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Descriptor{}, errors.AudioCorrupted(path, "not a valid WAV file")
	}
	decoder.ReadInfo()
	if decoder.Err() != nil {
		return Descriptor{}, errors.AudioCorrupted(path, decoder.Err().Error())
	}

	duration, err := decoder.Duration()
	if err != nil {
		return Descriptor{}, errors.AudioCorrupted(path, err.Error())
	}

	return Descriptor{
		DurationSeconds: duration.Seconds(),
		SampleRate:      int(decoder.SampleRate),
		Channels:        int(decoder.NumChans),
		FormatTag:       "wav",
		SizeBytes:       size,
	}, nil
}

// ffprobeOutput is the subset of `ffprobe -print_format json` fields used.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

func probeWithFFprobe(path, ext string, size int64) (Descriptor, error) {
	_, ffprobePath, err := discoverFFmpeg()
	if err != nil {
		return Descriptor{}, err
	}

	cmd := exec.Command(ffprobePath, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if err != nil {
		return Descriptor{}, errors.AudioCorrupted(path, err.Error())
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Descriptor{}, errors.AudioCorrupted(path, "unreadable ffprobe output")
	}

	desc := Descriptor{FormatTag: strings.TrimPrefix(ext, "."), SizeBytes: size}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		desc.DurationSeconds = d
	}
	for _, s := range parsed.Streams {
		if s.CodecType != "audio" {
			continue
		}
		desc.Channels = s.Channels
		if rate, err := strconv.Atoi(s.SampleRate); err == nil {
			desc.SampleRate = rate
		}
		break
	}
	return desc, nil
}

// discoverFFmpeg locates the ffmpeg/ffprobe binaries, checking
// DICTEA_FFMPEG_DIR first, then the directory next to the running executable,
// its ffmpeg subdirectory, its resources and resources/ffmpeg subdirectories,
// and finally PATH. The first location holding both binaries wins.
func discoverFFmpeg() (ffmpegPath, ffprobePath string, err error) {
	ffmpegName, ffprobeName := "ffmpeg", "ffprobe"
	if runtime.GOOS == "windows" {
		ffmpegName, ffprobeName = "ffmpeg.exe", "ffprobe.exe"
	}

	var candidates []string
	if dir := os.Getenv("DICTEA_FFMPEG_DIR"); dir != "" {
		candidates = append(candidates, dir)
	}
	if exe, err1 := os.Executable(); err1 == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates, exeDir, filepath.Join(exeDir, "ffmpeg"),
			filepath.Join(exeDir, "resources"), filepath.Join(exeDir, "resources", "ffmpeg"))
	}

	for _, dir := range candidates {
		fp := filepath.Join(dir, ffmpegName)
		pp := filepath.Join(dir, ffprobeName)
		if fileExists(fp) && fileExists(pp) {
			return fp, pp, nil
		}
	}

	if p, err1 := exec.LookPath(ffmpegName); err1 == nil {
		if pp, err2 := exec.LookPath(ffprobeName); err2 == nil {
			return p, pp, nil
		}
	}

	return "", "", errors.AudioDependency("ffmpeg")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Canonicalize converts path to mono 16 kHz 16-bit PCM WAV, writing the
// result into tempDir with a uuid-derived name. If path is already
// canonical WAV, path itself is returned and no file is written (idempotent:
// canonicalizing an already-canonical file yields the same sample rate and
// channel count). A returned path that differs from path is a new temp file
// the caller owns and must remove.
func Canonicalize(ctx context.Context, path, tempDir string) (string, Descriptor, error) {
	desc, err := Probe(path)
	if err != nil {
		return "", Descriptor{}, err
	}

	if desc.FormatTag == "wav" && desc.SampleRate == conf.CanonicalSampleRate && desc.Channels == conf.CanonicalChannels {
		return path, desc, nil
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", Descriptor{}, fmt.Errorf("creating temp dir: %w", err)
	}
	outPath := filepath.Join(tempDir, uuid.NewString()+".wav")

	if desc.FormatTag == "flac" {
		if err := decodeFLACToWAV(path, outPath); err == nil {
			canonDesc, _ := probeWAV(outPath, 0)
			return outPath, canonDesc, nil
		}
		// Fall through to ffmpeg on any native-decode failure.
	}

	if err := convertWithFFmpeg(ctx, path, outPath); err != nil {
		return "", Descriptor{}, err
	}
	canonDesc, err := probeWAV(outPath, 0)
	if err != nil {
		return "", Descriptor{}, err
	}
	return outPath, canonDesc, nil
}

func convertWithFFmpeg(ctx context.Context, inPath, outPath string) error {
	ffmpegPath, _, err := discoverFFmpeg()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y", "-i", inPath,
		"-ar", strconv.Itoa(conf.CanonicalSampleRate),
		"-ac", strconv.Itoa(conf.CanonicalChannels),
		"-acodec", "pcm_s16le",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.AudioCorrupted(inPath, strings.TrimSpace(string(out)))
	}
	return nil
}

// decodeFLACToWAV decodes a FLAC file natively and writes a canonical WAV,
// narrowing samples to 16 bits with SIMD-accelerated conversion. It does not
// resample or downmix: a stream whose rate or channel count is not canonical
// returns an error so the caller falls back to ffmpeg.
func decodeFLACToWAV(inPath, outPath string) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return err
	}
	defer stream.Close()

	if int(stream.Info.SampleRate) != conf.CanonicalSampleRate || int(stream.Info.NChannels) != conf.CanonicalChannels {
		return fmt.Errorf("flac stream is %d Hz / %d ch, not canonical; deferring to ffmpeg", stream.Info.SampleRate, stream.Info.NChannels)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, conf.CanonicalSampleRate, conf.CanonicalBitDepth, conf.CanonicalChannels, 1)

	samples := make([]int, 0, 4096)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			break
		}
		pcm := make([]int16, len(frame.Subframes[0].Samples))
		simd.Int32ToInt16(pcm, frame.Subframes[0].Samples)
		for _, s := range pcm {
			samples = append(samples, int(s))
		}
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: conf.CanonicalSampleRate, NumChannels: conf.CanonicalChannels},
		Data:   samples,
		SourceBitDepth: conf.CanonicalBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// Chunk splits a canonical WAV into fixed-length pieces under outDir, one
// file per chunkMinutes window, for memory-bounded processing of long
// recordings.
func Chunk(ctx context.Context, path string, chunkMinutes int, outDir string) ([]string, error) {
	if chunkMinutes <= 0 {
		return nil, fmt.Errorf("chunkMinutes must be positive, got %d", chunkMinutes)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chunk dir: %w", err)
	}

	ffmpegPath, _, err := discoverFFmpeg()
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pattern := filepath.Join(outDir, fmt.Sprintf("%s_chunk_%%03d.wav", stem))

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y", "-i", path,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkMinutes*60),
		"-c", "copy",
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errors.AudioCorrupted(path, strings.TrimSpace(string(out)))
	}

	matches, err := filepath.Glob(filepath.Join(outDir, stem+"_chunk_*.wav"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// CleanupTemp removes temp files matching the given glob patterns (relative
// to dir) and returns the number removed.
func CleanupTemp(dir string, patterns []string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}
	if len(patterns) == 0 {
		patterns = []string{"*.wav", "*.tmp"}
	}

	count := 0
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return count, err
		}
		for _, match := range matches {
			if err := os.Remove(match); err == nil {
				count++
			}
		}
	}
	return count, nil
}
