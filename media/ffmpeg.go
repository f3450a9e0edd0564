package media

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AhmadShamli/DarkEye/common"
)

// SegmentFilePattern strftime pattern naming rotated recording segment files
const SegmentFilePattern = "%Y-%m-%d_%H-%M-%S.mkv"

// HLSPlaylistName on-demand stream playlist file name
const HLSPlaylistName = "index.m3u8"

/*
TimelapseGOP compute the forced keyframe spacing for timelapse capture.

At one frame per interval, the encoder's default keyframe spacing would place
keyframes many segment lengths apart, so segment cuts would arrive late. Forcing
one GOP per segment keeps every segment boundary on a keyframe.

	@param segmentSecs int - timelapse segment length in seconds
	@param intervalSecs int - seconds between sampled frames
	@returns frames per GOP, minimum 1
*/
func TimelapseGOP(segmentSecs, intervalSecs int) int {
	gop := segmentSecs / intervalSecs
	if gop < 1 {
		return 1
	}
	return gop
}

/*
AuthenticateStreamURL inject camera credentials into a rtsp:// stream locator.

The locator is returned unchanged when it already carries credentials, is not
rtsp, or cannot be parsed.

	@param streamURL string - stream locator
	@param username *string - optional camera credential
	@param password *string - optional camera credential
	@returns credentialed stream locator
*/
func AuthenticateStreamURL(streamURL string, username, password *string) string {
	if username == nil || password == nil || *username == "" {
		return streamURL
	}
	if !strings.HasPrefix(streamURL, "rtsp://") || strings.Contains(streamURL, "@") {
		return streamURL
	}
	parsed, err := url.Parse(streamURL)
	if err != nil {
		return streamURL
	}
	parsed.User = url.UserPassword(*username, *password)
	return parsed.String()
}

/*
RecordingArgs build the capture subprocess argument list for main recording.

The subprocess reads a continuous stream and writes fixed duration segment files
named by a strftime timestamp pattern, either by verbatim stream copy or after
re-encoding depending on mode.

	@param input string - stream locator to read
	@param outPattern string - strftime pattern of the rotated output files
	@param mode common.RecordMode - raw or encode
	@param segmentSecs int - segment length in seconds
	@returns argument list
*/
func RecordingArgs(input, outPattern string, mode common.RecordMode, segmentSecs int) []string {
	args := []string{
		"-rtsp_transport", "tcp",
		"-fflags", "nobuffer",
		"-allowed_media_types", "video+audio",
		"-i", input,
	}

	if mode == common.RecordModeEncode {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "superfast",
			"-crf", "23",
			"-c:a", "aac",
			"-b:a", "128k",
		)
	} else {
		args = append(args, "-c", "copy")
	}

	args = append(args,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", segmentSecs),
		"-strftime", "1",
		"-reset_timestamps", "1",
		outPattern,
	)
	return args
}

/*
TimelapseArgs build the capture subprocess argument list for timelapse recording.

Samples one frame per interval and forces keyframe aligned GOPs so segment
boundaries land on keyframes.

	@param input string - stream locator to read
	@param outPattern string - strftime pattern of the rotated output files
	@param intervalSecs int - seconds between sampled frames
	@param segmentSecs int - segment length in seconds
	@returns argument list
*/
func TimelapseArgs(input, outPattern string, intervalSecs, segmentSecs int) []string {
	gop := TimelapseGOP(segmentSecs, intervalSecs)
	return []string{
		"-rtsp_transport", "tcp",
		"-fflags", "nobuffer",
		"-allowed_media_types", "video",
		"-i", input,
		"-vf", fmt.Sprintf("fps=1/%d", intervalSecs),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "28",
		"-g", fmt.Sprintf("%d", gop),
		"-sc_threshold", "0",
		"-an",
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", segmentSecs),
		"-strftime", "1",
		"-reset_timestamps", "1",
		outPattern,
	}
}

/*
HLSArgs build the capture subprocess argument list for on-demand live streaming.

Re-encodes to a low latency segmented stream with a short rolling window; old
segments are deleted by the subprocess itself.

	@param input string - stream locator to read
	@param outPlaylist string - playlist file path
	@returns argument list
*/
func HLSArgs(input, outPlaylist string) []string {
	return []string{
		"-rtsp_transport", "tcp",
		"-fflags", "nobuffer",
		"-flags", "low_delay",
		"-i", input,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-pix_fmt", "yuv420p",
		"-g", "60",
		"-sc_threshold", "0",
		"-c:a", "aac",
		"-f", "hls",
		"-hls_time", "2",
		"-hls_list_size", "3",
		"-hls_flags", "delete_segments",
		"-start_number", "0",
		outPlaylist,
	}
}

/*
TalkArgs build the bridge subprocess argument list for talk-back audio.

The subprocess reads raw 16-bit little-endian PCM from its standard input and
forwards it to the camera's audio backchannel.

	@param target string - backchannel destination locator
	@returns argument list
*/
func TalkArgs(target string) []string {
	return []string{
		"-f", "s16le",
		"-ar", "8000",
		"-ac", "1",
		"-i", "pipe:0",
		"-c:a", "pcm_mulaw",
		"-ar", "8000",
		"-ac", "1",
		"-f", "rtp",
		"-rtsp_transport", "tcp",
		target,
	}
}
