package wiki

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	pagesListItem = ".pages-list-item"
	tagCloudItem  = ".pages-tag-cloud-box > a.tag"
)

// CountSelector conta os nós que casam com selector em rawURL.
func (c *Client) CountSelector(ctx context.Context, rawURL, selector string) (int, error) {
	doc, err := c.document(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

// TagCloudCount conta as tags da nuvem de tags em rawURL.
func (c *Client) TagCloudCount(ctx context.Context, rawURL string) (int, error) {
	return c.CountSelector(ctx, rawURL, tagCloudItem)
}

// Statistics são as contagens por tag do site; -1 indica busca que falhou.
type Statistics struct {
	OriginalNumber                    int `json:"OriginalNumber"`
	ReprintedNumber                   int `json:"ReprintedNumber"`
	ArticlesNumber                    int `json:"ArticlesNumber"`
	TopicArticlesNumber               int `json:"topicArticlesNumber"`
	NonTopicArticlesNumber            int `json:"NonTopicArticlesNumber"`
	CooperationTopicArticlesNumber    int `json:"CooperationTopicArticlesNumber"`
	CooperationNonTopicArticlesNumber int `json:"CooperationNonTopicArticlesNumber"`
	ViveFrameworkNumber               int `json:"ViveFrameworkNumber"`
	ArtNumber                         int `json:"ArtNumber"`
	SpaceNumber                       int `json:"SpaceNumber"`
	TagNumber                         int `json:"TagNumber"`
}

type tagCount struct {
	tag string
	dst *int
}

// Statistics busca todas as contagens em paralelo.
func (c *Client) Statistics(ctx context.Context) Statistics {
	var st Statistics

	// ViveFrameworkNumber lê a mesma tag de CooperationNonTopicArticlesNumber;
	// o site não tem tag própria para o framework.
	counts := []tagCount{
		{"原创", &st.OriginalNumber},
		{"搬运", &st.ReprintedNumber},
		{"文章", &st.ArticlesNumber},
		{"主题文章", &st.TopicArticlesNumber},
		{"非主题文章", &st.NonTopicArticlesNumber},
		{"合作主题文章", &st.CooperationTopicArticlesNumber},
		{"合作非主题文章", &st.CooperationNonTopicArticlesNumber},
		{"合作非主题文章", &st.ViveFrameworkNumber},
		{"设定框架", &st.ArtNumber},
		{"成员页", &st.SpaceNumber},
	}

	var wg sync.WaitGroup
	for _, tc := range counts {
		tc := tc
		wg.Add(1)
		go func() {
			defer wg.Done()
			*tc.dst = c.countOrFail(ctx, c.URL("system:page-tags", "tag", tc.tag), pagesListItem)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		st.TagNumber = c.countOrFail(ctx, c.URL("system:page-tags-list"), tagCloudItem)
	}()
	wg.Wait()

	return st
}

func (c *Client) countOrFail(ctx context.Context, rawURL, selector string) int {
	n, err := c.CountSelector(ctx, rawURL, selector)
	if err != nil {
		c.log.Warn("tag count failed", zap.String("url", rawURL), zap.Error(err))
		return -1
	}
	return n
}
