package constants

// MediaTypes maps media URL file extensions to the MIME types carriers accept
// for MMS and RCS media.
var MediaTypes = map[string]string{
	// Image formats
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",

	// Video formats
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".3gp":  "video/3gpp",
	".webm": "video/webm",

	// Audio formats
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
	".aac": "audio/aac",
	".ogg": "audio/ogg",
	".amr": "audio/amr",

	// Document formats
	".pdf":  "application/pdf",
	".vcf":  "text/vcard",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".ics":  "text/calendar",
	".rtf":  "application/rtf",
	".zip":  "application/zip",
	".json": "application/json",
}

// DefaultMediaType is reported for media URLs without a recognisable extension
const DefaultMediaType = "application/octet-stream"

// ContentTypeJSON is the Content-Type of webhook acknowledgements and error bodies
const ContentTypeJSON = "application/json"
