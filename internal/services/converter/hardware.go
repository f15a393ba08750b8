package converter

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/liveleaper/liveleaper/internal/utils"
)

// encoderSet holds the hardware encoders found on this machine.
// Detection runs once and is cached for the process lifetime.
type encoderSet struct {
	once     sync.Once
	encoders map[string]bool
}

var hwEncoderCandidates = []string{
	"h264_nvenc", "hevc_nvenc",
	"h264_qsv", "hevc_qsv",
	"h264_amf", "hevc_amf",
}

// detect parses `ffmpeg -hide_banner -encoders` output. AMF encoders
// are only usable on Windows even when the build lists them.
func (s *encoderSet) detect(ctx context.Context, ffmpegPath string) map[string]bool {
	s.once.Do(func() {
		s.encoders = make(map[string]bool)

		out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
		if err != nil {
			utils.LogWarn(ctx, "encoder detection failed, falling back to software encoding", utils.Fields{"error": err.Error()})
			return
		}

		available := parseEncoderList(out)
		for _, name := range hwEncoderCandidates {
			if !available[name] {
				continue
			}
			if strings.HasSuffix(name, "_amf") && runtime.GOOS != "windows" {
				continue
			}
			s.encoders[name] = true
		}

		if len(s.encoders) > 0 {
			utils.LogInfo(ctx, "hardware encoders detected", utils.Fields{"encoders": encoderNames(s.encoders)})
		}
	})
	return s.encoders
}

// parseEncoderList extracts encoder names from ffmpeg's -encoders
// listing. Lines look like " V....D h264_nvenc   NVIDIA NVENC H.264".
func parseEncoderList(out []byte) map[string]bool {
	found := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	inList := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "------") {
			inList = true
			continue
		}
		if !inList {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			found[fields[1]] = true
		}
	}
	return found
}

// selectVideoEncoder maps a codec family to the best available encoder,
// preferring NVENC, then QSV, then AMF, then software.
func selectVideoEncoder(codec string, hw map[string]bool, hwEnabled bool) string {
	switch codec {
	case "", "h264", "avc", "libx264":
		if hwEnabled {
			for _, enc := range []string{"h264_nvenc", "h264_qsv", "h264_amf"} {
				if hw[enc] {
					return enc
				}
			}
		}
		return "libx264"
	case "h265", "hevc", "libx265":
		if hwEnabled {
			for _, enc := range []string{"hevc_nvenc", "hevc_qsv", "hevc_amf"} {
				if hw[enc] {
					return enc
				}
			}
		}
		return "libx265"
	case "vp9":
		return "libvpx-vp9"
	case "av1":
		return "libsvtav1"
	case "copy":
		return "copy"
	default:
		return codec
	}
}

// qualityArgs returns the rate control flags appropriate for the
// selected encoder. NVENC and QSV do not understand -crf.
func qualityArgs(encoder string, crf int, preset string) []string {
	crfStr := strconv.Itoa(crf)
	switch {
	case strings.HasSuffix(encoder, "_nvenc"):
		return []string{"-rc", "vbr", "-cq", crfStr, "-preset", nvencPreset(preset)}
	case strings.HasSuffix(encoder, "_qsv"):
		return []string{"-global_quality", crfStr, "-preset", preset}
	case strings.HasSuffix(encoder, "_amf"):
		return []string{"-qp_i", crfStr, "-qp_p", crfStr}
	case encoder == "copy":
		return nil
	default:
		return []string{"-crf", crfStr, "-preset", preset}
	}
}

// nvencPreset maps x264 preset names onto NVENC's p1..p7 scale.
func nvencPreset(preset string) string {
	switch preset {
	case "ultrafast", "superfast":
		return "p1"
	case "veryfast":
		return "p2"
	case "faster":
		return "p3"
	case "fast":
		return "p4"
	case "medium", "":
		return "p5"
	case "slow":
		return "p6"
	case "slower", "veryslow":
		return "p7"
	default:
		return "p5"
	}
}

func encoderNames(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}
