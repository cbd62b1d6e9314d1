package mcpserver

// SubmissionGuide explains to LLM clients how a listing is accepted.
const SubmissionGuide = `# torlist Submission Guide

A listing is accepted only when it is signed by the wallet that owns it.

## Fields

| field       | rule                                                   |
|-------------|--------------------------------------------------------|
| entry       | the site URL or onion address; non-empty               |
| description | short human description; non-empty                     |
| slpAddress  | owner address (simpleledger:, bitcoincash: or legacy)  |
| signature   | base64 Bitcoin signed message over **entry**           |
| category    | one of: bch, ecommerce, info, eth, ipfs                |

The signature is checked against the entry exactly as submitted; values
are trimmed only when the listing is stored.

## Signing

Any BCH or SLP wallet with "sign message" support works. From the command
line:

` + "```" + `
app sign --wif <private key in WIF> --message "http://example.onion"
` + "```" + `

prints the simpleledger address and the signature to submit.

## After submission

Listings are append-only and never edited. Moderators can hide a listing by
adding its identifier (the "hash" returned on submission) to the blacklist;
hidden listings disappear from every read but stay in the log, and reappear
if the blacklist entry is removed.
`
