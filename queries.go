package presentation

// GraphQL documents for the deployed Sanity schema. Fragments are appended
// to each query once.

const imageFragment = `
fragment ImageFragment on Image {
  asset {
    _id
  }
  hotspot {
    _type
    x
    y
    height
    width
  }
  crop {
    _type
    top
    bottom
    left
    right
  }
}
`

const settingsFragment = `
fragment SettingsFragment on Settings {
  title
  descriptionRaw
  footerRaw
  ogImage {
    ...ImageFragment
  }
}
`

const authorFragment = `
fragment AuthorFragment on Author {
  name
  picture {
    ...ImageFragment
  }
}
`

const postFragment = `
fragment PostFragment on Post {
  _id
  _updatedAt
  title
  slug {
    current
  }
  excerpt
  coverImage {
    ...ImageFragment
  }
  date
  author {
    ...AuthorFragment
  }
}
`

// SettingsQuery reads the settings singleton.
const SettingsQuery = `
query {
  Settings(id: "settings") {
    ...SettingsFragment
  }
}
` + settingsFragment + imageFragment

// HeroQuery reads the most recent post.
const HeroQuery = `
query {
  allPost(
    where: { slug: { current: { neq: null } } }
    limit: 1
    sort: [{ date: DESC }, { _updatedAt: DESC }]
  ) {
    ...PostFragment
  }
}
` + postFragment + authorFragment + imageFragment

// MoreStoriesQuery reads recent posts except $skip.
const MoreStoriesQuery = `
query ($skip: ID!, $limit: Int!) {
  allPost(
    where: { slug: { current: { neq: null } }, _id: { neq: $skip } }
    limit: $limit
    sort: [{ date: DESC }, { _updatedAt: DESC }]
  ) {
    ...PostFragment
  }
}
` + postFragment + authorFragment + imageFragment

// PostQuery reads one post with its body by slug.
const PostQuery = `
query ($slug: String!) {
  allPost(where: { slug: { current: { eq: $slug } } }, limit: 1) {
    ...PostFragment
    contentRaw
  }
}
` + postFragment + authorFragment + imageFragment

// FeedQuery reads every published post for the sitemap and RSS feed.
const FeedQuery = `
query ($limit: Int!) {
  allPost(
    where: { slug: { current: { neq: null } } }
    limit: $limit
    sort: [{ date: DESC }, { _updatedAt: DESC }]
  ) {
    _id
    _updatedAt
    title
    slug {
      current
    }
    excerpt
    date
  }
}
`

type settingsData struct {
	Settings *Settings `json:"Settings"`
}

type postsData struct {
	AllPost []Post `json:"allPost"`
}
