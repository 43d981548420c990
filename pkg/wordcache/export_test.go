package wordcache

// Export internal values for testing.
// This file is only compiled during tests.

// PCGStream is the stream selector Sample seeds its generator with.
const PCGStream = pcgStream
