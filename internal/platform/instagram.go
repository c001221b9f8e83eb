package platform

func init() {
	Register(portrait{
		name:         "instagram-reel",
		maxSeconds:   90,
		maxFileSize:  250 * 1024 * 1024, // 250MB
		audioBitrate: "128k",
	})
}
