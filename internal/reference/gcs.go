// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client is an interface to the storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in
	// the storage engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to the actual storage engine in use.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified
	// range. Length of -1 means to capture everything until the
	// end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return h.ObjectHandle.NewRangeReader(ctx, offset, length)
}

var (
	defaultStorageClient           *storage.Client
	defaultStorageClientErr        error
	initializeDefaultStorageClient sync.Once
)

// NewDefaultClient returns a storage client that uses the application default
// credentials.  It caches the storage client for efficiency.
func NewDefaultClient(ctx context.Context) (Client, error) {
	initializeDefaultStorageClient.Do(func() {
		defaultStorageClient, defaultStorageClientErr = storage.NewClient(ctx)
	})
	if defaultStorageClientErr != nil {
		return nil, fmt.Errorf("creating default storage client: %v", defaultStorageClientErr)
	}
	return GCSClient{defaultStorageClient}, nil
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects.
func NewPublicClient(ctx context.Context) (Client, error) {
	gcs, err := storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("creating public storage client: %v", err)
	}
	return GCSClient{gcs}, nil
}

// NewClientFromToken returns a storage client that authenticates every
// request with the OAuth2 bearer token accessToken.
func NewClientFromToken(ctx context.Context, accessToken string) (Client, error) {
	token := oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: accessToken,
	}
	gcs, err := storage.NewClient(ctx, option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, fmt.Errorf("creating client with token source: %v", err)
	}
	return GCSClient{gcs}, nil
}

var errInvalidID = errors.New("invalid reference ID")

// Bucket retrieves references stored as FASTA objects in a storage bucket.
// The object for a reference id is the first of id+".fasta", id+".fa" and id
// that exists.
type Bucket struct {
	client Client
	bucket string
}

// NewBucket returns a Bucket reading objects of bucket through client.
func NewBucket(client Client, bucket string) *Bucket {
	return &Bucket{client, bucket}
}

// Retrieve implements Retriever.
func (b *Bucket) Retrieve(ctx context.Context, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%q: %w", id, errInvalidID)
	}

	var data io.ReadCloser
	var err error
	for _, object := range []string{id + ".fasta", id + ".fa", id} {
		data, err = b.client.NewObjectHandle(b.bucket, object).NewRangeReader(ctx, 0, -1)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrObjectNotExist) {
			return "", newStorageError("opening reference "+object, err)
		}
	}
	if err != nil {
		return "", newStorageError("opening reference "+id, err)
	}
	defer data.Close()

	sequence, err := ReadFASTA(data, id)
	if err != nil {
		return "", fmt.Errorf("reading reference %s: %w", id, err)
	}
	return sequence, nil
}

func newStorageError(context string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", context, ErrNotFound)
	}
	if err, ok := err.(*googleapi.Error); ok {
		switch err.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", context, ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: access denied (%d): %v", context, err.Code, err)
		}
	}
	return fmt.Errorf("%s: %v", context, err)
}
