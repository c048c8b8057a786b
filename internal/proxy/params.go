package proxy

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"standin/internal/config"
	"standin/internal/media"
)

// DefaultResolution is the proxy height used when no preview scale is
// configured.
const DefaultResolution = 540

// resolutionRatio scales the dispatch threshold: a source must exceed
// ratio times the target height in both axes before a proxy is worth making.
const resolutionRatio = 1.3

// ScanMode selects the deinterlace behavior for a video transcode.
type ScanMode int

const (
	// ScanAutomatic lets the deinterlacer act on frames flagged interlaced.
	ScanAutomatic ScanMode = iota
	// ScanProgressive disables deinterlacing.
	ScanProgressive
	// ScanTopFieldFirst forces field parity for interlaced sources.
	ScanTopFieldFirst
	// ScanBottomFieldFirst forces the opposite parity.
	ScanBottomFieldFirst
)

// EncodeOptions carries everything BuildVideoArgs needs beyond the producer
// itself. Values come from config and probing; the builder reads no globals.
type EncodeOptions struct {
	Resolution int
	FullRange  bool
	Scan       ScanMode
	// AspectRatio overrides the display aspect as w:h. Zero means omit.
	AspectRatio [2]int
	UseHardware bool
	// Hardware lists the encoder names reported available.
	Hardware []string
	// Dest is the pending output path.
	Dest string
}

// Resolution returns the target proxy height from config.
func Resolution(cfg *config.Config) int {
	if cfg != nil && cfg.Proxy.PreviewScale > 0 {
		return cfg.Proxy.PreviewScale
	}
	return DefaultResolution
}

// Threshold returns the minimum source dimension that justifies a proxy at
// the given target height.
func Threshold(resolution int) int {
	return int(math.Round(resolutionRatio * float64(resolution)))
}

// BuildVideoArgs builds the complete ffmpeg argument list for a video proxy.
// The sequence is input options, stream mapping, filters, color metadata,
// container and codec settings, then the destination; ffmpeg is sensitive to
// this ordering.
func BuildVideoArgs(obj *media.Object, opts EncodeOptions) []string {
	args := []string{
		"-loglevel", "verbose",
		"-i", EffectiveResource(obj),
		"-max_muxing_queue_size", "9999",
	}
	// transcode all streams except data, subtitles, and attachments
	if obj.GetInt(media.PropVideoIndex) < obj.GetInt(media.PropAudioIndex) {
		args = append(args, "-map", "0:v?", "-map", "0:a?")
	} else {
		args = append(args, "-map", "0:a?", "-map", "0:v?")
	}
	args = append(args, "-map_metadata", "0", "-ignore_unknown")

	var filters strings.Builder
	switch opts.Scan {
	case ScanAutomatic:
		filters.WriteString("yadif=deint=interlaced,")
	case ScanTopFieldFirst:
		filters.WriteString("yadif=parity=tff,")
	case ScanBottomFieldFirst:
		filters.WriteString("yadif=parity=bff,")
	}
	fmt.Fprintf(&filters, "scale=width=-2:height=%d", opts.Resolution)
	hwFilters := ""
	if opts.UseHardware &&
		(slices.Contains(opts.Hardware, "hevc_vaapi") || slices.Contains(opts.Hardware, "h264_vaapi")) {
		hwFilters = ",format=nv12,hwupload"
	}
	if opts.FullRange {
		args = append(args, "-vf", filters.String()+":in_range=full:out_range=full"+hwFilters)
		args = append(args, "-color_range", "jpeg")
	} else {
		args = append(args, "-vf", filters.String()+":in_range=mpeg:out_range=mpeg"+hwFilters)
		args = append(args, "-color_range", "mpeg")
	}
	args = append(args, colorArgs(obj)...)
	if opts.AspectRatio != [2]int{} {
		args = append(args, "-aspect", fmt.Sprintf("%d:%d", opts.AspectRatio[0], opts.AspectRatio[1]))
	}
	args = append(args, "-f", "mp4", "-codec:a", "ac3", "-b:a", "256k")
	args = append(args, "-pix_fmt", "yuv420p")
	args = append(args, videoCodecArgs(opts)...)
	// every frame a keyframe so scrubbing never waits on a GOP
	args = append(args, "-g", "1", "-bf", "0")
	args = append(args, "-y", opts.Dest)
	return args
}

// colorArgs selects the primaries/transfer/matrix triple from the source's
// reported colorspace. The 601 tag splits on height: 576-line sources are
// PAL (bt470bg primaries), everything else NTSC-derived smpte170m.
func colorArgs(obj *media.Object) []string {
	switch obj.GetInt(media.PropMetaColorspace) {
	case 601:
		if obj.GetInt(media.PropMetaHeight) == 576 {
			return []string{
				"-color_primaries", "bt470bg",
				"-color_trc", "smpte170m",
				"-colorspace", "bt470bg",
			}
		}
		return []string{
			"-color_primaries", "smpte170m",
			"-color_trc", "smpte170m",
			"-colorspace", "smpte170m",
		}
	case 170:
		return []string{
			"-color_primaries", "smpte170m",
			"-color_trc", "smpte170m",
			"-colorspace", "smpte170m",
		}
	case 240:
		return []string{
			"-color_primaries", "smpte240m",
			"-color_trc", "smpte240m",
			"-colorspace", "smpte240m",
		}
	case 470:
		return []string{
			"-color_primaries", "bt470bg",
			"-color_trc", "bt470bg",
			"-colorspace", "bt470bg",
		}
	default:
		return []string{
			"-color_primaries", "bt709",
			"-color_trc", "bt709",
			"-colorspace", "bt709",
		}
	}
}

// videoCodecArgs picks exactly one video encoder. Hardware encoders are
// tried in a fixed chain with per-encoder quality settings; libx264 is the
// fallback when hardware is disabled or nothing in the chain is available.
func videoCodecArgs(opts EncodeOptions) []string {
	if opts.UseHardware {
		switch {
		case slices.Contains(opts.Hardware, "hevc_nvenc"):
			return []string{"-codec:v", "hevc_nvenc", "-rc", "constqp", "-vglobal_quality", "37"}
		case slices.Contains(opts.Hardware, "hevc_qsv"):
			return []string{"-load_plugin", "hevc_hw", "-codec:v", "hevc_qsv", "-global_quality:v", "36", "-look_ahead", "1"}
		case slices.Contains(opts.Hardware, "hevc_amf"):
			return []string{"-codec:v", "hevc_amf", "-rc", "1", "-qp_i", "32", "-qp_p", "32"}
		case slices.Contains(opts.Hardware, "hevc_vaapi"):
			return []string{
				"-init_hw_device", "vaapi=vaapi0:,connection_type=x11",
				"-filter_hw_device", "vaapi0",
				"-codec:v", "hevc_vaapi", "-qp", "37",
			}
		case slices.Contains(opts.Hardware, "h264_vaapi"):
			return []string{
				"-init_hw_device", "vaapi=vaapi0:,connection_type=x11",
				"-filter_hw_device", "vaapi0",
				"-codec:v", "h264_vaapi", "-qp", "30",
			}
		case slices.Contains(opts.Hardware, "hevc_videotoolbox"):
			return []string{"-codec:v", "hevc_videotoolbox", "-b:v", "2M"}
		}
	}
	return []string{"-codec:v", "libx264", "-preset", "veryfast", "-crf", "23"}
}

// BuildImageArgs builds the melt argument list that renders a still image
// proxy. Images go through the framework itself so the proxy is produced by
// the same plugin that loads the original.
func BuildImageArgs(obj *media.Object, resolution int, dest string) []string {
	width := obj.GetFloat(media.PropMetaWidth)
	height := obj.GetFloat(media.PropMetaHeight)
	scaledWidth := 0
	if height > 0 {
		scaledWidth = int(math.Round(width / height * float64(resolution)))
	}
	return []string{
		"-verbose", "-profile", "square_pal",
		EffectiveResource(obj), "out=0",
		"-consumer", "avformat:" + dest,
		fmt.Sprintf("width=%d", scaledWidth),
		fmt.Sprintf("height=%d", resolution),
		"pix_fmt=yuvj422p", "color_range=full",
	}
}
