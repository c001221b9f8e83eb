package platform

func init() {
	Register(portrait{
		name:         "tiktok",
		maxSeconds:   180,
		maxFileSize:  287 * 1024 * 1024, // 287MB
		audioBitrate: "128k",
	})
}
