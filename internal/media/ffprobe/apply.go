package ffprobe

import (
	"strconv"

	"standin/internal/media"
)

// Apply projects an inspection result onto a producer object using the
// meta.media.* property names the framework itself would have filled in.
// Properties with no corresponding stream data are left untouched.
func Apply(result Result, obj *media.Object) {
	obj.Update(func(props map[string]string) {
		video := result.FirstVideoStream()
		audio := result.FirstAudioStream()

		if video != nil {
			props[media.PropVideoIndex] = strconv.Itoa(video.Index)
			props[media.PropMetaWidth] = strconv.Itoa(video.Width)
			props[media.PropMetaHeight] = strconv.Itoa(video.Height)
			props[media.PropMetaColorspace] = strconv.Itoa(colorspaceCode(video.ColorSpace, video.Width, video.Height))
			props[media.PropMetaColorRange] = colorRange(video.ColorRange)
		} else {
			props[media.PropVideoIndex] = "-1"
		}

		if audio != nil {
			props[media.PropAudioIndex] = strconv.Itoa(audio.Index)
		} else {
			props[media.PropAudioIndex] = "-1"
		}

		if duration := result.DurationSeconds(); duration > 0 {
			props[media.PropMetaDuration] = strconv.FormatFloat(duration, 'f', -1, 64)
		}
	})
}

// colorspaceCode maps ffprobe color_space names to the numeric codes the
// framework reports. Unknown and unspecified spaces fall back on the
// resolution heuristic the framework applies: anything above roughly HD is
// assumed BT.709, the rest BT.601.
func colorspaceCode(name string, width, height int) int {
	switch name {
	case "bt709":
		return 709
	case "smpte170m":
		return 170
	case "smpte240m":
		return 240
	case "bt470bg":
		return 470
	case "bt2020nc", "bt2020c":
		return 2020
	default:
		if width*height > 750000 {
			return 709
		}
		return 601
	}
}

func colorRange(name string) string {
	if name == "pc" || name == "jpeg" || name == "full" {
		return "full"
	}
	return "mpeg"
}
