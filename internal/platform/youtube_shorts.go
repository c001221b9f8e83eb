package platform

func init() {
	Register(portrait{
		name:         "youtube-shorts",
		maxSeconds:   60,
		maxFileSize:  256 * 1024 * 1024 * 1024, // 256GB upload cap
		audioBitrate: "192k",
	})
}
