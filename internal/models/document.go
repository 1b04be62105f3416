package models

import "fmt"

type Document struct {
	ID               int64     `json:"id"`
	MessageID        int64     `json:"messageId,omitempty"`
	OriginalFilename string    `json:"originalFilename"`
	FileType         string    `json:"fileType,omitempty"`
	FileSize         int64     `json:"fileSize"`
	UploadTime       LocalTime `json:"uploadTime"`
	SenderName       string    `json:"senderName"`
}

// HumanSize renders a byte count as "12.5 KB".
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d Bytes", bytes)
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}
