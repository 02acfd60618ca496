package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/pathstore"
)

// Pathstore keeps documents in a pathstore instance:
//
//	{prefix}/documents/{id}  the Document JSON
//	{prefix}/hashes/{hash}   {"document_id": id}
type Pathstore struct {
	client *pathstore.Client
	prefix string
}

func NewPathstore(client *pathstore.Client, prefix string) *Pathstore {
	if prefix == "" {
		prefix = "regrag"
	}
	return &Pathstore{client: client, prefix: prefix}
}

func (p *Pathstore) docKey(id string) string    { return p.prefix + "/documents/" + id }
func (p *Pathstore) hashKey(hash string) string { return p.prefix + "/hashes/" + hash }

type hashRef struct {
	DocumentID string `json:"document_id"`
}

func (p *Pathstore) Put(ctx context.Context, doc *doctree.Document) error {
	if err := p.client.PutNode(ctx, p.docKey(doc.DocumentID), pathstore.NodeRequest{
		Value:     doc,
		MergeMode: "replace",
		Source:    "regrag",
	}); err != nil {
		return err
	}
	if doc.ContentHash == "" {
		return nil
	}
	return p.client.PutNode(ctx, p.hashKey(doc.ContentHash), pathstore.NodeRequest{
		Value:     hashRef{DocumentID: doc.DocumentID},
		MergeMode: "replace",
		Source:    "regrag",
	})
}

func (p *Pathstore) Get(ctx context.Context, id string) (*doctree.Document, error) {
	node, err := p.client.GetNode(ctx, p.docKey(id))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}
	return decodeDocument(node.Value)
}

func (p *Pathstore) FindByHash(ctx context.Context, hash string) (*doctree.Document, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	node, err := p.client.GetNode(ctx, p.hashKey(hash))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}
	var ref hashRef
	if err := json.Unmarshal(node.Value, &ref); err != nil {
		return nil, fmt.Errorf("decode hash ref: %w", err)
	}
	return p.Get(ctx, ref.DocumentID)
}

func (p *Pathstore) documents(ctx context.Context) ([]*doctree.Document, error) {
	nodes, err := p.client.ListChildren(ctx, p.prefix+"/documents", 0)
	if err != nil {
		return nil, err
	}
	docs := make([]*doctree.Document, 0, len(nodes))
	for _, n := range nodes {
		doc, err := decodeDocument(n.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Key, err)
		}
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt != docs[j].CreatedAt {
			return docs[i].CreatedAt < docs[j].CreatedAt
		}
		return docs[i].DocumentID < docs[j].DocumentID
	})
	return docs, nil
}

// List returns newest documents first, matching the SQLite backend.
func (p *Pathstore) List(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := p.documents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentInfo, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		out = append(out, infoOf(docs[i]))
	}
	return out, nil
}

func (p *Pathstore) Delete(ctx context.Context, id string) error {
	doc, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.ContentHash != "" {
		if _, err := p.client.DeleteNode(ctx, p.hashKey(doc.ContentHash), false); err != nil {
			return err
		}
	}
	found, err := p.client.DeleteNode(ctx, p.docKey(id), false)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (p *Pathstore) AllChunks(ctx context.Context) ([]ChunkRecord, error) {
	docs, err := p.documents(ctx)
	if err != nil {
		return nil, err
	}
	var out []ChunkRecord
	for _, d := range docs {
		for _, c := range d.Chunks {
			out = append(out, ChunkRecord{Chunk: c, Filename: d.Filename})
		}
	}
	return out, nil
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}

func decodeDocument(raw json.RawMessage) (*doctree.Document, error) {
	var doc doctree.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
