package service

import (
	"io"
)

// Upload 文档上传：流式写入内容存储，返回 cid
// 后缀白名单与大小上限在 api 层校验，这里只负责传输
func (s *Service) Upload(r io.Reader, filename string) (*UploadResult, error) {
	cid, err := s.store.Add(r)
	if err != nil {
		return nil, WrapE(err, KindStorage, "content store upload failed")
	}

	return &UploadResult{
		IpfsHash: cid,
		Filename: filename,
	}, nil
}
