package config

const (
	KeyTargetURL         = "target_url"
	KeyBatchMode         = "batch_mode"
	KeyLogLevel          = "log_level"
	KeyLinksFile         = "links_file"
	KeyOutputFile        = "output_file"
	KeyShortChunksLog    = "short_chunks_log"
	KeyStorePath         = "store_path"
	KeyCleanRulesFile    = "clean_rules_file"
	KeyScraperRateLimit  = "scraper_rate_limit"
	KeyScraperTimeout    = "scraper_timeout"
	KeyTokenizerEncoding = "tokenizer_encoding"
	KeyMaxTokens         = "max_tokens"
	KeyMinHeadingLevel   = "min_heading_level"
	KeyMinChunkTokens    = "min_chunk_tokens"
	KeyListItemsPerChunk = "list_items_per_chunk"
	KeyTableRowsPerChunk = "table_rows_per_chunk"
	KeyNestedGroups      = "nested_groups_per_chunk"
	KeyMinLongListItems  = "min_long_list_items"
	KeyMinLongTableRows  = "min_long_table_rows"
	KeyMinNestedGroups   = "min_nested_groups"
	KeyMinNestedItems    = "min_nested_items"
	KeyGenerationModel   = "generation_model_name"
	KeyGenerationRetries = "generation_retry_limit"
	KeyGenerationTimeout = "generation_call_timeout"
	KeyOllamaURL         = "ollama_url"
	KeyMetaPromptFile    = "meta_prompt_file"
)
