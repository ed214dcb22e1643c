// Package photo 打卡照片的压缩、落盘、容量回收与打包下载
package photo

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"workshop-tracker/backend/config"
	"workshop-tracker/backend/pkg/timeutil"
)

var (
	ErrEmptyPhoto       = errors.New("照片为空")
	ErrUnsupportedPhoto = errors.New("照片格式仅支持 jpeg/png/webp")
	ErrDecodePhoto      = errors.New("照片无法解码")
)

// Kind 打卡类型
type Kind string

const (
	KindIn  Kind = "in"
	KindOut Kind = "out"
)

const minQuality = 5

// Store 本地照片目录
type Store struct {
	cfg    config.PhotoConfig
	logger *zap.Logger
	mu     sync.Mutex // 串行化写入与回收
}

// NewStore 创建照片存储并确保根目录存在
func NewStore(cfg *config.PhotoConfig, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建照片目录失败: %w", err)
	}
	return &Store{cfg: *cfg, logger: logger}, nil
}

// Save 压缩并保存照片，返回相对引用 <dd-mm-yyyy>/<code>_<in|out>_<uuid>.jpg
func (s *Store) Save(code string, kind Kind, at time.Time, raw []byte) (string, error) {
	data, err := Compress(raw, s.cfg.MaxEdge, s.cfg.Quality, s.cfg.MaxFileBytes)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prune(int64(len(data))); err != nil {
		s.logger.Warn("照片目录回收失败", zap.Error(err))
	}

	day := timeutil.FormatDate(at)
	ref := filepath.ToSlash(filepath.Join(day, fmt.Sprintf("%s_%s_%s.jpg", code, kind, uuid.NewString())))
	full := filepath.Join(s.cfg.Dir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("创建日期目录失败: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("写入照片失败: %w", err)
	}
	return ref, nil
}

// Prune 删除最早的照片，直到目录总大小不超过上限
func (s *Store) Prune() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(0)
}

type fileEntry struct {
	path    string
	size    int64
	modTime time.Time
}

// prune 为即将写入的 incoming 字节预留空间
func (s *Store) prune(incoming int64) error {
	if s.cfg.MaxDirBytes <= 0 {
		return nil
	}

	var files []fileEntry
	var total int64
	err := filepath.WalkDir(s.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, fileEntry{path: path, size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	for len(files) > 0 && total+incoming > s.cfg.MaxDirBytes {
		oldest := files[0]
		files = files[1:]
		if err := os.Remove(oldest.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		total -= oldest.size
		s.logger.Info("回收旧照片", zap.String("path", oldest.path), zap.Int64("size", oldest.size))
	}
	return nil
}

// Remove 删除 Save 返回的照片引用，文件不存在时忽略
func (s *Store) Remove(ref string) error {
	rel := filepath.Clean(filepath.FromSlash(ref))
	if rel == "." || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("非法照片引用: %q", ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.cfg.Dir, rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Archive 将整个照片目录写为 zip
// 只在列目录时持锁，写出过程中被回收的文件直接跳过
func (s *Store) Archive(w io.Writer) error {
	var rels []string
	s.mu.Lock()
	err := filepath.WalkDir(s.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.cfg.Dir, path)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, rel := range rels {
		if err := addToZip(zw, filepath.Join(s.cfg.Dir, rel), filepath.ToSlash(rel)); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addToZip(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	entry, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

// Compress 解码 jpeg/png/webp，等比缩放到最长边不超过 maxEdge，
// 再以逐步降低的质量编码为 JPEG，直到不超过 maxBytes
func Compress(raw []byte, maxEdge, quality, maxBytes int) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPhoto
	}

	switch http.DetectContentType(raw) {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return nil, ErrUnsupportedPhoto
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, ErrDecodePhoto
		}
		img = decoded
	}

	img = downscale(img, maxEdge)

	if quality <= 0 || quality > 100 {
		quality = 95
	}
	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("编码 JPEG 失败: %w", err)
		}
		if maxBytes <= 0 || buf.Len() <= maxBytes || quality <= minQuality {
			break
		}
		quality -= 5
	}
	return buf.Bytes(), nil
}

func downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}

	nw, nh := maxEdge, maxEdge
	if w >= h {
		nh = h * maxEdge / w
	} else {
		nw = w * maxEdge / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
