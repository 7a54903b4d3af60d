// Package keyvault encrypts API keys before they reach the settings store.
//
// Blobs look like "v1:<iv>:<ciphertext>", both parts standard base64. The
// passphrase is fixed per deployment, so this keeps keys out of plain sight
// in the database file; it is not a secret store.
package keyvault
