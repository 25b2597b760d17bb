// ABOUTME: Mix package providing the live bus and offline export
// ABOUTME: Bus sums playing tracks per block; Export renders a normalized file
// Package mix combines tracks.
//
// Bus is the live path. It owns the ordered slot list, evaluates the
// mute/solo policy for its tracks, accepts their streams as an
// output.Output and is itself an output.Source for the sound device.
//
// Export is the offline path. It mixes every loaded track at its volume,
// ignoring mute and solo, pads shorter tracks with silence and peak
// normalizes before writing.
//
// Example:
//
//	bus := mix.NewBus(mix.Config{SampleRate: 44100, Channels: 2, Slots: 4})
//	bus.Start(output.NewOto())
//	bus.Track(1).Load(buf, "vocals.wav")
//	bus.Track(1).Play()
package mix
