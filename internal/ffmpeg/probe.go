package ffmpeg

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ZacxDev/clipcaster/pkg/types"
)

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	NbFrames     string `json:"nb_frames"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`

	Tags         map[string]string `json:"tags"`
	SideDataList []probeSideData   `json:"side_data_list"`
}

type probeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// rotation is the display rotation in degrees, normalized to [0, 360).
// Display matrix side data wins over the legacy rotate tag.
func (s *probeStream) rotation() int {
	deg := 0
	found := false
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" || sd.Rotation != 0 {
			deg = int(math.Round(sd.Rotation))
			found = true
			break
		}
	}
	if !found {
		if v, err := strconv.Atoi(strings.TrimSpace(s.Tags["rotate"])); err == nil {
			deg = v
		}
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// GetVideoMetadata probes a media file. The ffprobe process is the only
// handle opened and it has exited by the time this returns.
func (p *Processor) GetVideoMetadata(inputPath string) (*types.VideoAsset, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}

	raw, err := p.probe(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}
	return parseProbe(inputPath, raw)
}

func parseProbe(path, raw string) (*types.VideoAsset, error) {
	var data probeOutput
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, errors.Wrap(err, "invalid ffprobe output")
	}
	if len(data.Streams) == 0 {
		return nil, errors.New("no streams found in video")
	}

	var video, audio *probeStream
	for i := range data.Streams {
		s := &data.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}
	if video == nil {
		return nil, errors.New("no video stream found")
	}

	frameRate := parseRational(video.RFrameRate)
	if frameRate == 0 {
		frameRate = parseRational(video.AvgFrameRate)
	}

	// First try video stream duration, then format duration, then frames / rate
	duration := parseFloat(video.Duration)
	if duration == 0 {
		duration = parseFloat(data.Format.Duration)
	}
	if duration == 0 && frameRate > 0 {
		duration = parseFloat(video.NbFrames) / frameRate
	}

	// ffmpeg autorotates on transcode, so quarter turns swap the frame.
	width, height := video.Width, video.Height
	if r := video.rotation(); r == 90 || r == 270 {
		width, height = height, width
	}

	asset := &types.VideoAsset{
		Path:      path,
		Duration:  duration,
		FrameRate: frameRate,
		Width:     width,
		Height:    height,
		Codec:     video.CodecName,
	}
	if audio != nil {
		asset.HasAudio = true
		asset.SampleRate, _ = strconv.Atoi(audio.SampleRate)
		asset.Channels = audio.Channels
	}
	return asset, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRational reads ffprobe's "num/den" rates.
func parseRational(s string) float64 {
	nums := strings.Split(strings.TrimSpace(s), "/")
	if len(nums) != 2 {
		return parseFloat(s)
	}
	num := parseFloat(nums[0])
	den := parseFloat(nums[1])
	if den == 0 {
		return 0
	}
	return num / den
}
