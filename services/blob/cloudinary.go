package blobsvc

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
)

// cloudinaryStore stores course files on Cloudinary using their REST API.
// Objects are kept as raw resources so any file type can be attached.
type cloudinaryStore struct {
	cloudName string
	apiKey    string
	apiSecret string
	http      *http.Client
}

var _ core.BlobStore = (*cloudinaryStore)(nil)

func NewCloudinaryStore(conf *core.Config) *cloudinaryStore {
	return &cloudinaryStore{
		cloudName: conf.Blob.CloudName,
		apiKey:    conf.Blob.ApiKey,
		apiSecret: conf.Blob.ApiSecret,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Bytes     int    `json:"bytes"`
}

func (s *cloudinaryStore) Upload(ctx context.Context, objPath string, data []byte) (string, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"api_key":   s.apiKey,
		"public_id": objPath,
	}
	params["signature"] = s.sign(params)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("file", path.Base(objPath))
	if err != nil {
		return "", errors.Wrap(err, "cloudinary: creating form file")
	}
	if _, err = io.Copy(part, bytes.NewReader(data)); err != nil {
		return "", errors.Wrap(err, "cloudinary: writing form file")
	}
	w.Close()

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/raw/upload", s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", errors.Wrap(err, "cloudinary: creating request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := s.do(req, "Upload", objPath)
	if err != nil {
		return "", err
	}

	var result uploadResult
	if err = json.Unmarshal(body, &result); err != nil {
		return "", errors.Wrap(err, "cloudinary: decoding upload response")
	}
	return result.SecureURL, nil
}

type listResult struct {
	Resources []struct {
		PublicID  string `json:"public_id"`
		SecureURL string `json:"secure_url"`
	} `json:"resources"`
	NextCursor string `json:"next_cursor"`
}

func (s *cloudinaryStore) List(ctx context.Context, prefix string) ([]core.ObjectRef, error) {
	var refs []core.ObjectRef
	cursor := ""
	for {
		q := url.Values{"type": {"upload"}, "prefix": {prefix}, "max_results": {"500"}}
		if cursor != "" {
			q.Set("next_cursor", cursor)
		}
		endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/resources/raw?%s", s.cloudName, q.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errors.Wrap(err, "cloudinary: creating request")
		}
		req.SetBasicAuth(s.apiKey, s.apiSecret)

		body, err := s.do(req, "List", prefix)
		if err != nil {
			return nil, err
		}

		var result listResult
		if err = json.Unmarshal(body, &result); err != nil {
			return nil, errors.Wrap(err, "cloudinary: decoding list response")
		}
		for _, r := range result.Resources {
			refs = append(refs, core.ObjectRef{Path: r.PublicID, URL: r.SecureURL})
		}
		if result.NextCursor == "" {
			return refs, nil
		}
		cursor = result.NextCursor
	}
}

func (s *cloudinaryStore) Delete(ctx context.Context, ref core.ObjectRef) error {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"api_key":   s.apiKey,
		"public_id": ref.Path,
	}
	params["signature"] = s.sign(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/raw/destroy", s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "cloudinary: creating request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := s.do(req, "Delete", ref.Path)
	if err != nil {
		return err
	}

	// destroy returns {"result": "ok"} or {"result": "not found"};
	// an already removed object counts as deleted so retries converge.
	var result struct {
		Result string `json:"result"`
	}
	if err = json.Unmarshal(body, &result); err != nil {
		return errors.Wrap(err, "cloudinary: decoding destroy response")
	}
	if result.Result != "ok" && result.Result != "not found" {
		return core.NewTransientError("Delete", ref.Path, errors.Errorf("cloudinary: destroy result %q", result.Result))
	}
	return nil
}

func (s *cloudinaryStore) do(req *http.Request, op, target string) ([]byte, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, core.NewTransientError(op, target, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, core.NewTransientError(op, target,
			errors.Errorf("cloudinary: status %d: %s", resp.StatusCode, body))
	}
	return body, nil
}

// sign computes the API signature from the given params.
// api_key and file are excluded from the signature per Cloudinary spec.
func (s *cloudinaryStore) sign(params map[string]string) string {
	excludeKeys := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !excludeKeys[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	payload := strings.Join(pairs, "&") + s.apiSecret
	h := sha1.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
