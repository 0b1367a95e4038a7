package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/netclient"
	"github.com/kbukum/voxboard/recorder"
	"github.com/kbukum/voxboard/transcription"
	"github.com/kbukum/voxboard/transcription/ondevice"
	"github.com/kbukum/voxboard/transcription/whisper"
)

var errTimedOut = stderrors.New("processing timed out")

// dictation replays one WAV file through a recorder session.
type dictation struct {
	cfg    *Config
	log    *logger.Logger
	out    io.Writer
	status io.Writer
}

func (d *dictation) run(ctx context.Context, wavPath string) error {
	samples, err := readSamples(wavPath)
	if err != nil {
		return err
	}

	client, err := netclient.New(d.cfg.Backend, d.log)
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	opts := []recorder.Option{recorder.WithLogger(d.log)}
	local, err := d.localProvider()
	if err != nil {
		return err
	}
	if local != nil {
		opts = append(opts, recorder.WithLocalProvider(local))
	}

	outcome := make(chan recorder.Event, 1)
	timedOut := false
	opts = append(opts, recorder.WithAnnouncer(recorder.AnnouncerFunc(func(ev recorder.Event) {
		fmt.Fprintf(d.status, "[%s] %s\n", ev.State, ev.Kind)
		switch ev.Kind {
		case recorder.EventTimedOut:
			timedOut = true
		case recorder.EventCompleted, recorder.EventNoSpeech, recorder.EventFailed, recorder.EventDiscarded, recorder.EventIdle:
			select {
			case outcome <- ev:
			default:
			}
		}
	})))

	rec := audio.NewWAVRecorder(d.cfg.CaptureDir)
	insert := recorder.InserterFunc(func(text string) { fmt.Fprintln(d.out, text) })
	m, err := recorder.New(d.cfg.Session, rec, client, insert, opts...)
	if err != nil {
		return err
	}
	defer m.Close()

	id, err := m.Start(ctx)
	if err != nil {
		return err
	}
	if err := rec.WriteSamples(samples); err != nil {
		m.CancelRecording()
		return err
	}
	if err := m.Stop(ctx, id); err != nil {
		return err
	}

	select {
	case ev := <-outcome:
		switch {
		case ev.Kind == recorder.EventFailed:
			return ev.Err
		case ev.Kind == recorder.EventIdle && timedOut:
			return errTimedOut
		case ev.Kind == recorder.EventNoSpeech:
			fmt.Fprintln(d.status, "no speech detected")
		}
		return nil
	case <-ctx.Done():
		m.CancelRecording()
		return ctx.Err()
	}
}

// localProvider builds the whisper-backed on-device recognizer when the
// session can use one.
func (d *dictation) localProvider() (transcription.Provider, error) {
	need, err := d.cfg.needsLocal()
	if err != nil || !need {
		return nil, err
	}
	engine, err := whisper.NewProvider(d.cfg.Whisper)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return ondevice.NewProvider(d.cfg.OnDevice, ondevice.FromProvider(engine), d.log), nil
}

func readSamples(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := audio.DecodeSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
