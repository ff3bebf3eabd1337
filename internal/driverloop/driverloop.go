// Package driverloop wires a controller session, a compiled binding table,
// and the event mapper into the process's outer run loop: it owns signal
// handling and the profile-to-sinks construction sequence (§4.7, §5).
package driverloop

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	ctllog "github.com/sc-userland/steamctl/internal/log"
	"github.com/sc-userland/steamctl/internal/usbsession"
	"github.com/sc-userland/steamctl/internal/vdf"
	"github.com/sc-userland/steamctl/pkg/compiler"
	"github.com/sc-userland/steamctl/pkg/mapper"
	"github.com/sc-userland/steamctl/pkg/profile"
	"github.com/sc-userland/steamctl/pkg/vinput"
)

// ProfileError wraps any failure parsing or compiling the binding profile,
// surfaced to the CLI as exit code 3 (§6).
type ProfileError struct {
	Err error
}

func (e *ProfileError) Error() string { return fmt.Sprintf("driverloop: profile: %v", e.Err) }
func (e *ProfileError) Unwrap() error { return e.Err }

// Options configures a single Run invocation.
type Options struct {
	ProfilePath string
	Log         *slog.Logger
	Raw         ctllog.RawLogger
}

// Run loads and compiles the profile, opens the controller session,
// constructs the sinks the compiler selected, and pumps reports into the
// mapper until SIGINT/SIGTERM, the STEAM long-press exit gesture, or a
// session error ends the run (§4.7, §5 Cancellation).
func Run(opts Options) error {
	res, err := loadProfile(opts.ProfilePath)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		opts.Log.Info("profile: unrecognized binding token, resolved to unbound", "err", w)
	}

	sinks, err := buildSinks(res)
	if err != nil {
		return fmt.Errorf("driverloop: %w", err)
	}

	sess, err := usbsession.Open(opts.Log, opts.Raw)
	if err != nil {
		sinks.Close()
		return fmt.Errorf("driverloop: %w", err)
	}
	// §5 Cancellation (c): the sinks are destroyed before the session, so
	// defer the session's close first — deferred calls run LIFO.
	defer sess.Close()
	defer sinks.Close()

	m := mapper.New(sinks, res.Tables, sess)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts.Log.Info("driverloop: controller connected, running")
	err = sess.Run(ctx, func(r usbsession.Report) {
		if r.Err != nil {
			opts.Log.Debug("driverloop: dropped unrecognized report", "err", r.Err)
			return
		}
		m.Process(r.Value, time.Now())
		if m.Exited() {
			cancel()
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("driverloop: session: %w", err)
	}
	return nil
}

func loadProfile(path string) (*compiler.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ProfileError{Err: err}
	}
	defer f.Close()

	tree, err := vdf.Parse(f)
	if err != nil {
		return nil, &ProfileError{Err: err}
	}

	doc, err := profile.Parse(tree)
	if err != nil {
		return nil, &ProfileError{Err: err}
	}

	sinks, err := buildAllSinks()
	if err != nil {
		return nil, &ProfileError{Err: err}
	}
	defer sinks.Close()

	res, err := compiler.Compile(doc, sinks)
	if err != nil {
		return nil, &ProfileError{Err: err}
	}
	return res, nil
}

// buildAllSinks constructs all three sinks so the compiler can query
// manages_key/manages_axis against the full advertised set regardless of
// which sinks the profile ultimately exercises.
func buildAllSinks() (*vinput.Set, error) {
	gp, err := vinput.NewGamepad()
	if err != nil {
		return nil, fmt.Errorf("gamepad sink: %w", err)
	}
	kb, err := vinput.NewKeyboard()
	if err != nil {
		gp.Close()
		return nil, fmt.Errorf("keyboard sink: %w", err)
	}
	ms, err := vinput.NewMouse()
	if err != nil {
		gp.Close()
		kb.Close()
		return nil, fmt.Errorf("mouse sink: %w", err)
	}
	return &vinput.Set{Sinks: [3]vinput.Sink{gp, kb, ms}}, nil
}

// buildSinks constructs the sinks for the live run, gated on what the
// compiler determined the profile actually needs (§4.5 step 5) — the
// gamepad is always built, while keyboard/mouse are skipped when nothing
// resolved to them. Buttons the profile leaves unmapped emit nothing.
func buildSinks(res *compiler.Result) (*vinput.Set, error) {
	var set vinput.Set

	gp, err := vinput.NewGamepad()
	if err != nil {
		return nil, fmt.Errorf("gamepad sink: %w", err)
	}
	set.Sinks[vinput.Gamepad] = gp

	if res.NeedKeyboard {
		kb, err := vinput.NewKeyboard()
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("keyboard sink: %w", err)
		}
		set.Sinks[vinput.Keyboard] = kb
	}

	if res.NeedMouse {
		ms, err := vinput.NewMouse()
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("mouse sink: %w", err)
		}
		set.Sinks[vinput.Mouse] = ms
	}

	return &set, nil
}
