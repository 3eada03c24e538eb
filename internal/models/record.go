package models

// ManifestFieldCount is the number of comma-separated fields in one manifest line.
const ManifestFieldCount = 14

// BitsPerGB converts a size in bits to binary gigabytes (8 * 1024^3).
const BitsPerGB = 8 * 1024 * 1024 * 1024

// ManifestRecord is one row of the manifest, keyed by Filename.
//
// Every field except SizeBits and SizeGB is carried as the exact text taken
// from the file name or the filesystem; numeric-looking fields such as
// PeriodMs are opaque at this layer.
type ManifestRecord struct {
	Filename          string  // Bare file name, the unique identity key
	Batch             string  // Batch the test vector was generated in
	Category          string  // Free-form type tag, e.g. "FakePulsar"
	PeriodMs          string  // Period of the injected signal (ms)
	DispersionMeasure string  // DM of the injected signal
	Acceleration      string  // Acceleration (Z) applied to the signal
	SignalToNoise     string  // S/N of the injected signal
	ProfileID         string  // Pulsar_Freq or Pulsar_Freq_Index
	FrequencyMHz      string  // Observation frequency of the profile
	FullPath          string  // Path of the file when first recorded
	ParentDir         string  // Directory containing the file
	SizeBits          int64   // Size in bits at first recording
	SizeGB            float64 // SizeBits expressed in binary gigabytes
	ContentHash       string  // Hex digest computed at first recording
}

// BitsToGB converts a size in bits to binary gigabytes.
func BitsToGB(bits int64) float64 {
	return float64(bits) / BitsPerGB
}

// SizeBitsOf returns the size in bits of a file that is size bytes long.
func SizeBitsOf(size int64) int64 {
	return size * 8
}
