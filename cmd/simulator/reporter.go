package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/worldframe/astro"
	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/internal/observability"
	"github.com/signalsfoundry/worldframe/kb"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// zenithCamera looks straight up from the observer.
var zenithCamera = astro.CameraPose{PitchRad: math.Pi / 2}

// reporter evaluates one observer on Earth at every tick and writes a
// one-line summary.
type reporter struct {
	r        *core.Resolver
	observer coord.SphericalCoordinate
	space    model.WorldSpace
	out      io.Writer
	log      logging.Logger
	metrics  *observability.SimulatorCollector

	mu          sync.Mutex
	ticks       int
	lastEclipse astro.EclipseType
}

func newReporter(r *core.Resolver, store *kb.DescriptorStore, latDeg, lonDeg float64, out io.Writer, log logging.Logger, metrics *observability.SimulatorCollector) *reporter {
	if log == nil {
		log = logging.Noop()
	}
	space := store.Space(core.EarthID)
	return &reporter{
		r:        r,
		observer: coord.FromDegrees(space.SurfaceRadiusM, latDeg, lonDeg),
		space:    space,
		out:      out,
		log:      log,
		metrics:  metrics,
	}
}

// Ticks returns the number of ticks reported so far.
func (rep *reporter) Ticks() int {
	rep.mu.Lock()
	defer rep.mu.Unlock()
	return rep.ticks
}

// Tick evaluates the observer at t.
func (rep *reporter) Tick(ctx context.Context, t timectrl.SimTime) error {
	began := time.Now()

	earth, err := rep.r.WorldPose(core.EarthID, t)
	if err != nil {
		return err
	}
	moon, err := rep.r.WorldPose(core.MoonID, t)
	if err != nil {
		return err
	}

	perturbers := astro.LunisolarPerturbers(core.SunID, core.MoonID)
	potential, err := astro.TidalPotential(rep.r, core.EarthID, rep.observer, t, perturbers)
	if err != nil {
		return err
	}
	tangential, err := astro.TangentialTidalAcceleration(rep.r, core.EarthID, rep.observer, t, perturbers)
	if err != nil {
		return err
	}
	irr, err := astro.SurfaceIrradianceAt(rep.r, core.EarthID, rep.observer, rep.space, core.SunID, t)
	if err != nil {
		return err
	}
	eclipse, err := astro.EclipseAt(rep.r, core.EarthID, rep.observer, rep.space, zenithCamera, t, core.SunID, core.MoonID)
	if err != nil {
		return err
	}
	lit, err := astro.ObserverLunarPhaseFraction(rep.r, core.EarthID, rep.observer, core.MoonID, core.SunID, t)
	if err != nil {
		return err
	}

	fmt.Fprintf(rep.out, "[%s] JD %.5f  moon %.0f km  tide %.4f m²/s² (%.3e m/s² horiz)  sun %.1f W/m²  eclipse %-7s  moon lit %.2f\n",
		t.Time().Format(time.RFC3339),
		t.JulianDay(),
		moon.Position.Sub(earth.Position).Len()/1000,
		potential.Total,
		tangential.Len(),
		irr.TotalWm2,
		eclipse.Type,
		lit,
	)

	rep.mu.Lock()
	first := rep.ticks == 0
	changed := eclipse.Type != rep.lastEclipse
	rep.lastEclipse = eclipse.Type
	rep.ticks++
	rep.mu.Unlock()

	if (first && eclipse.Type != astro.EclipseNone) || (!first && changed) {
		rep.log.Info(ctx, "eclipse state changed",
			logging.String("sim_time", t.Time().Format(time.RFC3339)),
			logging.String("type", eclipse.Type.String()),
		)
	}
	rep.metrics.SetEclipseState(int(eclipse.Type))
	rep.metrics.ObserveTick(t.Seconds(), time.Since(began))
	return nil
}
