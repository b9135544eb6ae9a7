// Package capture streams samples from an input device into an in-memory
// buffer and exposes it as a WAV file, for the optional "record, then
// transcribe" workflow.
//
// The producer/consumer split mirrors a typical AudioRecorder shape: a
// device callback (the producer) hands fixed-size frames to a queue and
// must never block, while a separate goroutine (the consumer) drains the
// queue and concatenates frames into the session buffer.
package capture

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/errors"
	"github.com/tphakala/dictea-go/internal/logging"
)

// consumerJoinTimeout bounds how long Stop waits for the consumer goroutine
// to drain and exit before giving up and returning anyway.
const consumerJoinTimeout = 2 * time.Second

// queuePollInterval is how often the consumer checks the stop flag while the
// producer queue is empty.
const queuePollInterval = 100 * time.Millisecond

// frameQueueBytes sizes the lock-free byte queue the device callback writes
// into; large enough to absorb several seconds of 32-bit float mono frames at a
// typical capture rate without the producer ever blocking.
const frameQueueBytes = 1 << 20

// DeviceInfo describes one enumerated capture device.
type DeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// DurationFunc reports total captured duration in seconds, monotonically
// non-decreasing, fired once per drained frame.
type DurationFunc func(seconds float64)

// Capture owns one recording session: a device, a producer/consumer frame
// queue, and the accumulated sample buffer. The session-level lock
// serializes Start/Stop; a Start while already recording is a no-op.
type Capture struct {
	settings *conf.Settings
	log      *slog.Logger

	mu      sync.Mutex
	running bool

	ctx    *malgo.AllocatedContext
	device *malgo.Device
	queue  *ringbuffer.RingBuffer

	stopConsumer chan struct{}
	consumerDone chan struct{}

	sampleCount  atomic.Int64
	onDuration   DurationFunc
	collectedMu  sync.Mutex
	collected    []float32
	channels     int
	sampleRate   int
}

// New creates a Capture bound to settings. The session is idle until Start.
func New(settings *conf.Settings) *Capture {
	return &Capture{settings: settings, log: logging.ForService("capture")}
}

func backendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.New(nil).
			Component("capture").
			Kind(errors.KindAudio, "Recording").
			UserFacing("Audio capture is not supported on this platform.").
			Context("os", runtime.GOOS).
			Build()
	}
}

// ListInputDevices enumerates available capture devices, skipping the
// platform's null/discard device.
func ListInputDevices() ([]DeviceInfo, error) {
	backend, err := backendForPlatform()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.AudioRecording(fmt.Sprintf("init audio context: %v", err))
	}
	defer func() { _ = ctx.Uninit() }()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.AudioRecording(fmt.Sprintf("enumerate capture devices: %v", err))
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		if strings.Contains(infos[i].Name(), "Discard all samples") {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index: i,
			Name:  infos[i].Name(),
			ID:    hexToASCII(infos[i].ID.String()),
		})
	}
	return devices, nil
}

// DefaultInputDevice returns the first enumerated capture device; the
// backend's own default-device flag is not consulted.
func DefaultInputDevice() (DeviceInfo, error) {
	devices, err := ListInputDevices()
	if err != nil {
		return DeviceInfo{}, err
	}
	if len(devices) == 0 {
		return DeviceInfo{}, errors.AudioRecording("no capture devices found")
	}
	return devices[0], nil
}

func hexToASCII(hexStr string) string {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return hexStr
	}
	return string(decoded)
}

// IsRecording reports whether a capture session is currently active.
func (c *Capture) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start begins capturing from device (nil for the system default) on a
// dedicated producer/consumer pair. Idempotent: a second Start while already
// running logs a warning and returns nil without restarting the device.
func (c *Capture) Start(device *DeviceInfo, onDuration DurationFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		if c.log != nil {
			c.log.Warn("capture already running, ignoring duplicate Start")
		}
		return nil
	}

	backend, err := backendForPlatform()
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.AudioRecording(fmt.Sprintf("init audio context: %v", err))
	}

	channels := c.settings.Audio.Channels
	if channels <= 0 {
		channels = conf.CanonicalChannels
	}
	sampleRate := c.settings.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = conf.CanonicalSampleRate
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if device != nil {
		infos, err := ctx.Devices(malgo.Capture)
		if err == nil && device.Index >= 0 && device.Index < len(infos) {
			deviceConfig.Capture.DeviceID = infos[device.Index].ID.Pointer()
		}
	}

	queue := ringbuffer.New(frameQueueBytes)

	malgoDevice, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			// Producer: never blocks. A full queue drops the frame rather
			// than stalling the audio callback thread.
			if _, werr := queue.Write(input); werr != nil && c.log != nil {
				c.log.Warn("capture queue full, dropping frame")
			}
		},
	})
	if err != nil {
		_ = ctx.Uninit()
		return errors.AudioRecording(fmt.Sprintf("init capture device: %v", err))
	}

	if err := malgoDevice.Start(); err != nil {
		malgoDevice.Uninit()
		_ = ctx.Uninit()
		return errors.AudioRecording(fmt.Sprintf("start capture device: %v", err))
	}

	c.ctx = ctx
	c.device = malgoDevice
	c.queue = queue
	c.channels = channels
	c.sampleRate = sampleRate
	c.onDuration = onDuration
	c.collected = nil
	c.sampleCount.Store(0)
	c.stopConsumer = make(chan struct{})
	c.consumerDone = make(chan struct{})
	c.running = true

	go c.consumeLoop()

	return nil
}

// consumeLoop drains the frame queue into the session buffer until Stop
// signals it to finish, polling the stop flag every queuePollInterval while
// the queue is empty.
func (c *Capture) consumeLoop() {
	defer close(c.consumerDone)

	chunk := make([]byte, 4096)
	for {
		n, err := c.queue.Read(chunk)
		if err != nil || n == 0 {
			select {
			case <-c.stopConsumer:
				c.drainRemaining(chunk)
				return
			case <-time.After(queuePollInterval):
				continue
			}
		}
		c.appendFrame(chunk[:n])
	}
}

// drainRemaining does one final non-blocking sweep of the queue after a
// stop request, so samples written just before Stop are not lost.
func (c *Capture) drainRemaining(chunk []byte) {
	for {
		n, err := c.queue.Read(chunk)
		if err != nil || n == 0 {
			return
		}
		c.appendFrame(chunk[:n])
	}
}

func (c *Capture) appendFrame(raw []byte) {
	samples := bytesToFloat32(raw)
	if len(samples) == 0 {
		return
	}

	c.collectedMu.Lock()
	c.collected = append(c.collected, samples...)
	total := len(c.collected)
	c.collectedMu.Unlock()

	c.sampleCount.Store(int64(total))
	if c.onDuration != nil && c.channels > 0 && c.sampleRate > 0 {
		frames := total / c.channels
		c.onDuration(float64(frames) / float64(c.sampleRate))
	}
}

// Stop flushes the frame queue, joins the consumer goroutine (bounded by
// consumerJoinTimeout), and returns the concatenated buffer, or nil if
// nothing was captured. Safe to call when not running.
func (c *Capture) Stop() ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, nil
	}

	_ = c.device.Stop()
	c.device.Uninit()
	_ = c.ctx.Uninit()
	c.running = false

	close(c.stopConsumer)
	select {
	case <-c.consumerDone:
	case <-time.After(consumerJoinTimeout):
		if c.log != nil {
			c.log.Warn("capture consumer did not join within timeout")
		}
	}

	c.collectedMu.Lock()
	defer c.collectedMu.Unlock()
	if len(c.collected) == 0 {
		return nil, nil
	}
	out := make([]float32, len(c.collected))
	copy(out, c.collected)
	return out, nil
}

func bytesToFloat32(raw []byte) []float32 {
	n := len(raw) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		samples[i] = float32FromBits(bits)
	}
	return samples
}

// Save writes samples (interleaved per channels) to path as a 16-bit PCM WAV
// file at sampleRate, converting from the float32 capture format. format is
// currently only "wav"; empty means wav and any other value is an error.
func Save(samples []float32, sampleRate, channels int, path, format string) (string, error) {
	if format != "" && format != "wav" {
		return "", fmt.Errorf("unsupported capture export format %q", format)
	}
	if channels <= 0 {
		channels = conf.CanonicalChannels
	}

	out, err := createFile(path)
	if err != nil {
		return "", errors.AudioRecording(fmt.Sprintf("create capture output: %v", err))
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, conf.CanonicalBitDepth, channels, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = clampToInt16(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           ints,
		SourceBitDepth: conf.CanonicalBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return "", errors.AudioRecording(fmt.Sprintf("write capture wav: %v", err))
	}
	if err := enc.Close(); err != nil {
		return "", errors.AudioRecording(fmt.Sprintf("close capture wav: %v", err))
	}
	return path, nil
}

func createFile(path string) (*os.File, error) {
	return os.Create(path)
}

func float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func clampToInt16(s float32) int {
	v := s * 32768
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int(v)
	}
}
