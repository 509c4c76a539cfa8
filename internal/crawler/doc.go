// Package crawler discovers the pages of a site so that each can be audited.
//
// The Spider starts from a URL target and follows same-host links
// breadth-first, bounded by depth and page limits. Pages are loaded through
// a Fetcher, normally *source.Loader, so crawled pages obey the same size
// limits, charset decoding and request headers as single targets.
//
// # Components
//
//   - Spider: queue, deduplication, depth tracking and politeness delay
//   - Parser: extracts the title and links of an HTML page
//
// # Filtering
//
// Ignore and follow patterns are glob patterns matched against the URL path:
//
//	spider := crawler.NewSpider(loader,
//		crawler.WithMaxDepth(2),
//		crawler.WithIgnorePatterns([]string{"/admin/*", "*.pdf"}),
//	)
//	docs, err := spider.Crawl(ctx, "https://example.com/", source.Request{})
//
// Links to other hosts are never followed.
package crawler
