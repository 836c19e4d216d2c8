package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// PNG 生成内容的二维码图片
func PNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, imageSize)
}

// Base64PNG 生成 base64 编码的二维码，直接嵌入 json 响应
func Base64PNG(content string) (string, error) {
	png, err := PNG(content)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
