package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsZeroChannels(t *testing.T) {
	_, err := New(48000, 1024, 4, 0)
	assert.Error(t, err)
}

func TestNewBuildsRequestedChannelCount(t *testing.T) {
	p, err := New(48000, 1024, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumChannels())
}

func TestProcessChannelsRejectsMismatchedInputCount(t *testing.T) {
	p, err := New(48000, 256, 4, 2)
	require.NoError(t, err)
	_, err = p.ProcessChannels(context.Background(), [][]float64{make([]float64, 64)})
	assert.Error(t, err)
}

func TestProcessChannelsRunsEachChannelIndependently(t *testing.T) {
	p, err := New(48000, 256, 4, 2)
	require.NoError(t, err)

	inputs := [][]float64{make([]float64, 512), make([]float64, 512)}
	outputs, err := p.ProcessChannels(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, len(outputs[0]), len(outputs[1]))
}

func TestLatencyMatchesEngineStructuralLatency(t *testing.T) {
	p, err := New(48000, 1024, 4, 1)
	require.NoError(t, err)
	ch := p.channels[0]
	assert.Equal(t, ch.engine.Latency(), p.Latency())
}

// TestSnapshotRestoreRoundTrip exercises spec.md §7's versioned-state
// round trip: every scalar parameter set through the Pipeline's public
// setters must survive a Snapshot -> Marshal -> Unmarshal -> Restore
// cycle on a freshly constructed pipeline.
func TestSnapshotRestoreRoundTrip(t *testing.T) {
	p, err := New(48000, 256, 4, 1)
	require.NoError(t, err)

	p.SetDenoiseThreshold(0.73)
	p.SetAirMix(-0.4)
	p.SetTransientSoftHard(0.2)

	snap := p.Snapshot()
	assert.InDelta(t, 0.73, snap.DenoiseThreshold, 1e-12)
	assert.InDelta(t, -0.4, snap.AirMix, 1e-12)
	assert.InDelta(t, 0.2, snap.TransientSoftHard, 1e-12)

	blob, err := Marshal(snap)
	require.NoError(t, err)

	restored, err := Unmarshal(blob)
	require.NoError(t, err)

	p2, err := New(48000, 256, 4, 1)
	require.NoError(t, err)
	p2.Restore(restored)

	assert.InDelta(t, 0.73, p2.channels[0].denoiser.Threshold(), 1e-12)
	assert.InDelta(t, -0.4, p2.channels[0].air.Mix(), 1e-12)
	assert.InDelta(t, 0.2, p2.channels[0].transient.SoftHard(), 1e-12)
}

func TestUnmarshalFutureVersionFallsBackToDefaults(t *testing.T) {
	future := State{Version: stateVersion + 1, DenoiseThreshold: 0.9}
	blob, err := Marshal(future)
	require.NoError(t, err)

	restored, err := Unmarshal(blob)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Version)
}

func TestNoiseBandEnergiesMatchesFilterBankCount(t *testing.T) {
	p, err := New(48000, 1024, 4, 1)
	require.NoError(t, err)
	bands := p.NoiseBandEnergies()
	assert.Len(t, bands, noiseBandCount)
	assert.NotPanics(t, func() { p.PublishNoiseBands() })
}

func TestResetClearsEngineWarmupState(t *testing.T) {
	p, err := New(48000, 256, 4, 1)
	require.NoError(t, err)
	p.ProcessMono(make([]float64, 256))
	p.Reset()
	assert.NotPanics(t, func() {
		p.ProcessMono(make([]float64, 64))
	})
}
